package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quest-go/internal/config"
)

type memoryBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Time
	err  error
}

func (m *memoryBlacklist) Add(_ context.Context, jti string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jtis == nil {
		m.jtis = make(map[string]time.Time)
	}
	m.jtis[jti] = exp
	return nil
}

func (m *memoryBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.jtis[jti]
	return ok, nil
}

var testAuthCfg = config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Minute}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(3, "ada", testAuthCfg)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, &memoryBlacklist{})
	require.NoError(t, err)
	require.Equal(t, uint(3), claims.UserID)
	require.Equal(t, "ada", claims.Username)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, Issuer, claims.Issuer)
}

func TestValidateTokenRejectsWrongKeyAndExpiry(t *testing.T) {
	token, err := GenerateToken(3, "ada", testAuthCfg)
	require.NoError(t, err)
	_, err = ValidateToken(context.Background(), token, "other-key", nil)
	require.Error(t, err)

	expired, err := GenerateToken(3, "ada", config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: -time.Minute})
	require.NoError(t, err)
	_, err = ValidateToken(context.Background(), expired, "test-secret", nil)
	require.Error(t, err)
}

func TestValidateTokenChecksBlacklist(t *testing.T) {
	token, err := GenerateToken(9, "grace", testAuthCfg)
	require.NoError(t, err)

	bl := &memoryBlacklist{}
	claims, err := ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, bl)
	require.NoError(t, err)

	require.NoError(t, bl.Add(context.Background(), claims.ID, claims.ExpiresAt.Time))
	_, err = ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, bl)
	require.ErrorIs(t, err, ErrTokenRevoked)

	bl.err = errors.New("redis down")
	_, err = ValidateToken(context.Background(), token, testAuthCfg.JWTSecretKey, bl)
	require.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.True(t, CheckPasswordHash("s3cret", hash))
	require.False(t, CheckPasswordHash("wrong", hash))
}
