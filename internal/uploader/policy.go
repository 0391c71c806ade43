package uploader

import (
	"fmt"
	"slices"

	"quest-go/internal/config"
)

// ValidationReason 标识文件未通过客户端校验的原因。
type ValidationReason string

const (
	ReasonUnsupportedType ValidationReason = "unsupported_type"
	ReasonTooLarge        ValidationReason = "too_large"
)

// ValidationError 表示文件在发出任何网络请求之前就被拒绝。
type ValidationError struct {
	FileName string
	Reason   ValidationReason
	Message  string // 展示给用户的提示
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Policy 是上传组件的校验策略：MIME 白名单和单文件大小上限。
type Policy struct {
	AllowedTypes []string
	MaxFileSize  int64
}

// DefaultPolicy returns the 11-type allow-list with a 25 MiB cap.
func DefaultPolicy() Policy {
	return Policy{
		AllowedTypes: slices.Clone(config.DefaultAllowedTypes),
		MaxFileSize:  config.DefaultMaxFileSizeBytes,
	}
}

// PolicyFromConfig 根据配置构建策略，缺失的字段回退到默认值。
func PolicyFromConfig(cfg config.UploaderConfig) Policy {
	p := DefaultPolicy()
	if len(cfg.AllowedTypes) > 0 {
		p.AllowedTypes = slices.Clone(cfg.AllowedTypes)
	}
	if cfg.MaxFileSizeBytes > 0 {
		p.MaxFileSize = cfg.MaxFileSizeBytes
	}
	return p
}

// Allows reports whether mimeType is on the allow-list.
func (p Policy) Allows(mimeType string) bool {
	return slices.Contains(p.AllowedTypes, mimeType)
}

// Check 校验单个文件，返回 nil 或 *ValidationError。
func (p Policy) Check(f File) error {
	if !p.Allows(f.MimeType) {
		return &ValidationError{
			FileName: f.Name,
			Reason:   ReasonUnsupportedType,
			Message:  fmt.Sprintf("File type not supported: %s (%s)", f.Name, f.MimeType),
		}
	}
	if f.Size > p.MaxFileSize {
		return &ValidationError{
			FileName: f.Name,
			Reason:   ReasonTooLarge,
			Message: fmt.Sprintf("%s is too large (%.2f MB). Maximum size is %s",
				f.Name, float64(f.Size)/(1024*1024), FormatFileSize(p.MaxFileSize)),
		}
	}
	return nil
}
