package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"quest-go/internal/apitypes"
	"quest-go/internal/config"

	"github.com/google/uuid"
)

// LocalStorageService 把附件保存在本地磁盘上，实现 apitypes.StorageService。
type LocalStorageService struct {
	basePath string // 本地存储的根目录，例如 "./uploads"
	baseURL  string // 文件访问 URL 的前缀，例如 "/uploads"
}

// NewLocalStorageService 创建本地存储服务，必要时创建根目录。
func NewLocalStorageService(cfg config.StorageConfig) (apitypes.StorageService, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败 '%s': %w", cfg.LocalPath, err)
	}
	return &LocalStorageService{
		basePath: cfg.LocalPath,
		baseURL:  cfg.BaseURL,
	}, nil
}

// storedName 生成唯一文件名，保留原始扩展名。
func storedName(fileName, mimeType string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		// 没有扩展名时尝试从 MIME 类型推断
		if extensions, _ := mime.ExtensionsByType(mimeType); len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	return uuid.New().String() + strings.ToLower(ext)
}

// UploadFile 将文件写入本地文件系统。
func (s *LocalStorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*apitypes.FileInfo, error) {
	name := storedName(fileName, mimeType)
	dstPath := filepath.Join(s.basePath, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("创建目标文件失败 '%s': %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("写入文件失败: %w", err)
	}
	if written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("文件大小不匹配: 预期 %d, 实际写入 %d", fileSize, written)
	}

	return &apitypes.FileInfo{
		URL:      strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(name),
		Path:     dstPath,
		Size:     fileSize,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

// DeleteFile 删除本地文件。只允许删除根目录下的文件，文件不存在不算错误。
func (s *LocalStorageService) DeleteFile(ctx context.Context, path string) error {
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return fmt.Errorf("解析存储目录失败: %w", err)
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("解析文件路径失败: %w", err)
	}
	if filepath.Dir(target) != base {
		return fmt.Errorf("拒绝删除存储目录之外的文件: %s", path)
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败 '%s': %w", path, err)
	}
	return nil
}
