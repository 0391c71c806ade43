package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"quest-go/internal/auth"
)

// contextKey 是在 context.Context 中存值的自定义类型，避免键冲突。
type contextKey string

// ClaimsKey 是在上下文中存放 JWT 声明的键。
const ClaimsKey contextKey = "claims"

// TokenFromRequest 从 Authorization 头 (Bearer) 中取令牌。
// allowQuery 为 true 时还接受 ?token=，供无法设置请求头的 websocket 客户端使用。
func TokenFromRequest(r *http.Request, allowQuery bool) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}

// AuthMiddleware 验证 JWT (包括黑名单) 并把声明放入请求上下文。
func AuthMiddleware(jwtKey string, blacklist auth.TokenBlacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := TokenFromRequest(r, false)
			if tokenString == "" {
				writeUnauthorized(w, "请求未包含有效的授权令牌")
				return
			}

			claims, err := auth.ValidateToken(r.Context(), tokenString, jwtKey, blacklist)
			if err != nil {
				log.Printf("令牌校验失败: %v", err)
				writeUnauthorized(w, "令牌无效")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims 把声明放入上下文，供测试和内部调用使用。
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaimsFromContext 从上下文中获取 JWT 声明。
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// GetUserIDFromContext 从上下文中获取用户 ID，不存在时返回 0 和 false。
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
