package auth

import (
	"context"
	"time"
)

// TokenBlacklist 保存已登出令牌的 jti，直到令牌原本的过期时间。
type TokenBlacklist interface {
	// Add 将 jti 加入黑名单，到 originalTokenExpTime 之后自动失效。
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	// IsBlacklisted 检查 jti 是否存在于黑名单中。
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
