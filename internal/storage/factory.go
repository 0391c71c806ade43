package storage

import (
	"fmt"

	"quest-go/internal/apitypes"
	"quest-go/internal/config"
)

// NewStorageService 按 STORAGE.TYPE 选择存储后端。
func NewStorageService(cfg config.StorageConfig) (apitypes.StorageService, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStorageService(cfg)
	case "s3":
		return NewS3StorageService(cfg.S3)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Type)
	}
}
