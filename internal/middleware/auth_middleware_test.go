package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quest-go/internal/auth"
	"quest-go/internal/config"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "k", JWTExpiry: time.Minute}
	token, err := auth.GenerateToken(12, "lin", cfg)
	require.NoError(t, err)

	var gotUser uint
	h := AuthMiddleware(cfg.JWTSecretKey, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		gotUser = id
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/curriculum/quests/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, uint(12), gotUser)

	for _, header := range []string{"", "Token " + token, "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/curriculum/quests/1", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, header)
		require.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestTokenFromRequestQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/quests/1?token=abc", nil)
	require.Equal(t, "", TokenFromRequest(req, false))
	require.Equal(t, "abc", TokenFromRequest(req, true))

	req.Header.Set("Authorization", "bearer xyz")
	require.Equal(t, "xyz", TokenFromRequest(req, true))
}

func TestGetClaimsFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetClaimsFromContext(req.Context())
	require.False(t, ok)
	_, ok = GetUserIDFromContext(WithClaims(req.Context(), nil))
	require.False(t, ok)
}
