package uploader

import (
	"fmt"
	"strings"
)

// Icon is the category glyph shown next to an attachment.
type Icon string

const (
	IconImage    Icon = "image"
	IconPDF      Icon = "pdf"
	IconDocument Icon = "document"
)

// IconFor picks an icon category from a MIME type.
func IconFor(mimeType string) Icon {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return IconImage
	case mimeType == "application/pdf":
		return IconPDF
	default:
		return IconDocument
	}
}

// FormatFileSize 把字节数格式化为 B / KB / MB，阈值以 1024 为基数。
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
