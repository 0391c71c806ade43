package apiserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"quest-go/internal/apitypes"
	"quest-go/internal/config"
	"quest-go/internal/services"
	"quest-go/internal/storage"
)

const (
	defaultMaxMemory = 32 << 20 // multipart 表单中非文件部分以及小文件保存在内存中的上限
)

// UploadHandler 处理附件的上传、列出和删除。
type UploadHandler struct {
	attachments services.AttachmentService
	cfg         config.StorageConfig
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(attachments services.AttachmentService, cfg config.StorageConfig) *UploadHandler {
	return &UploadHandler{attachments: attachments, cfg: cfg}
}

func (h *UploadHandler) maxBodyBytes() int64 {
	if h.cfg.MaxFileSizeMB <= 0 {
		return defaultMaxMemory
	}
	return h.cfg.MaxFileSizeMB << 20
}

// UploadFileHandler 处理 POST /api/curriculum/upload，表单字段为 file 和 quest_id。
// 只限制请求体大小，文件类型由客户端组件校验。
func (h *UploadHandler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	maxUploadSize := h.maxBodyBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, fmt.Sprintf("上传文件过大，最大允许 %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, fmt.Sprintf("解析表单失败: %v", err), http.StatusBadRequest)
		}
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	questID, err := storage.StrToUint(r.FormValue("quest_id"))
	if err != nil {
		writeJSONError(w, "缺少或无效的 quest_id", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeJSONError(w, "请求中缺少 'file' 字段", http.StatusBadRequest)
		} else {
			writeJSONError(w, fmt.Sprintf("获取文件失败: %v", err), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	log.Printf("收到上传文件: quest=%d 名称=%s 大小=%d 类型=%s", questID, header.Filename, header.Size, mimeType)

	att, err := h.attachments.Upload(r.Context(), services.UploadInput{
		ActorID:  userID,
		QuestID:  questID,
		FileName: header.Filename,
		MimeType: mimeType,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		writeServiceError(w, err, "存储文件失败")
		return
	}
	writeJSONResponse(w, http.StatusCreated, att.ToAPI())
}

// ListAttachmentsHandler 处理 GET /api/curriculum/quests/{questID}/attachments。
func (h *UploadHandler) ListAttachmentsHandler(w http.ResponseWriter, r *http.Request) {
	questID, ok := pathID(w, r, "questID")
	if !ok {
		return
	}
	atts, err := h.attachments.ListByQuest(r.Context(), questID)
	if err != nil {
		writeServiceError(w, err, "获取附件列表失败")
		return
	}
	out := make([]apitypes.Attachment, 0, len(atts))
	for i := range atts {
		out = append(out, atts[i].ToAPI())
	}
	writeJSONResponse(w, http.StatusOK, out)
}

// DeleteAttachmentHandler 处理 DELETE /api/curriculum/attachments/{attachmentID}。
func (h *UploadHandler) DeleteAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	attachmentID, ok := pathID(w, r, "attachmentID")
	if !ok {
		return
	}
	if err := h.attachments.Delete(r.Context(), userID, attachmentID); err != nil {
		writeServiceError(w, err, "删除附件失败")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
