package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quest-go/internal/apitypes"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func testClient(hub *Hub, questID, userID uint, buffer int) *Client {
	return &Client{hub: hub, send: make(chan []byte, buffer), QuestID: questID, UserID: userID}
}

func receive(t *testing.T, c *Client) apitypes.AttachmentEvent {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var ev apitypes.AttachmentEvent
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
	return apitypes.AttachmentEvent{}
}

func TestHubDeliversOnlyToQuestSubscribers(t *testing.T) {
	hub, _ := startHub(t)
	a1 := testClient(hub, 1, 10, 4)
	a2 := testClient(hub, 1, 11, 4)
	b := testClient(hub, 2, 12, 4)
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b)

	require.True(t, hub.Publish(apitypes.AttachmentEvent{
		Type: apitypes.AttachmentCreated, QuestID: 1, Attachment: apitypes.Attachment{ID: 3, FileName: "map.png"},
	}))

	require.Equal(t, uint(3), receive(t, a1).Attachment.ID)
	require.Equal(t, "map.png", receive(t, a2).Attachment.FileName)

	// 再发一个 quest 2 的事件，b 收到的第一条应该就是它
	require.True(t, hub.Publish(apitypes.AttachmentEvent{Type: apitypes.AttachmentDeleted, QuestID: 2}))
	ev := receive(t, b)
	require.Equal(t, apitypes.AttachmentDeleted, ev.Type)
	require.Equal(t, uint(2), ev.QuestID)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	c := testClient(hub, 1, 1, 1)
	hub.Register(c)
	hub.Unregister(c)

	_, ok := <-c.send
	require.False(t, ok)

	// 重复注销不会 panic
	hub.Unregister(c)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub, _ := startHub(t)
	slow := testClient(hub, 1, 1, 1)
	marker := testClient(hub, 99, 2, 1)
	hub.Register(slow)
	hub.Register(marker)

	hub.Publish(apitypes.AttachmentEvent{Type: apitypes.AttachmentCreated, QuestID: 1})
	hub.Publish(apitypes.AttachmentEvent{Type: apitypes.AttachmentDeleted, QuestID: 1})
	// 事件按顺序投递，marker 收到时前两个已经处理完
	hub.Publish(apitypes.AttachmentEvent{Type: apitypes.AttachmentCreated, QuestID: 99})
	receive(t, marker)

	require.Equal(t, apitypes.AttachmentCreated, receive(t, slow).Type)
	_, ok := <-slow.send
	require.False(t, ok, "slow subscriber should have been dropped")
}

func TestHubStopClosesSubscribers(t *testing.T) {
	hub, cancel := startHub(t)
	c := testClient(hub, 5, 1, 1)
	hub.Register(c)
	cancel()

	select {
	case _, ok := <-c.send:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not close subscriber on shutdown")
	}

	<-hub.done
	require.False(t, hub.Publish(apitypes.AttachmentEvent{QuestID: 5}))
	hub.Unregister(c)
}
