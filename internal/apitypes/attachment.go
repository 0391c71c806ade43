package apitypes

import (
	"fmt"
	"time"
)

// Attachment 是服务端持久化的附件记录，也是上传接口的响应体。
type Attachment struct {
	ID         uint      `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"` // MIME 类型
	FileSize   int64     `json:"file_size"` // 字节
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AttachmentEventType 标识附件事件的种类。
type AttachmentEventType string

const (
	AttachmentCreated AttachmentEventType = "attachment.created"
	AttachmentDeleted AttachmentEventType = "attachment.deleted"
)

// AttachmentEvent 是写入 Kafka 并经由 websocket 推送给订阅者的消息。
type AttachmentEvent struct {
	Type       AttachmentEventType `json:"type"`
	QuestID    uint                `json:"quest_id"`
	ActorID    uint                `json:"actor_id"`
	Attachment Attachment          `json:"attachment"`
	Timestamp  time.Time           `json:"timestamp"`
}

// ErrorResponse 是 API 错误响应的通用结构体。
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError is returned by the HTTP client when the server answers with a non-2xx status.
// Message carries the server's error text, which may be empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}
