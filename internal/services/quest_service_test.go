package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewQuestService(newMemQuests())

	_, err := svc.Create(ctx, 1, "   ", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	q, err := svc.Create(ctx, 1, " Dungeon basics ", "intro")
	require.NoError(t, err)
	require.Equal(t, "Dungeon basics", q.Title)

	got, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, uint(1), got.OwnerID)

	_, err = svc.Get(ctx, 404)
	require.ErrorIs(t, err, ErrQuestNotFound)

	list, err := svc.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
