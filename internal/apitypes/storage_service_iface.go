// internal/apitypes/storage_service_iface.go
package apitypes

import (
	"context"
	"io"
)

// StorageService 定义了附件文件的存储操作接口。
// 放在 apitypes 中以避免 storage 和 services 之间的循环依赖。
type StorageService interface {
	// UploadFile 将读取器中的内容写入存储系统，返回的 FileInfo.Path 用于之后的删除。
	UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)

	// DeleteFile 删除 UploadFile 返回的 Path 对应的文件。文件不存在时不视为错误。
	DeleteFile(ctx context.Context, path string) error
}
