package apiserver

import (
	"encoding/json"
	"net/http"
	"time"

	"quest-go/internal/apitypes"
	"quest-go/internal/models"
	"quest-go/internal/services"
)

// QuestHandler 处理 quest 的创建和查询。
type QuestHandler struct {
	quests      services.QuestService
	attachments services.AttachmentService
}

// NewQuestHandler 创建一个新的 QuestHandler 实例。
func NewQuestHandler(quests services.QuestService, attachments services.AttachmentService) *QuestHandler {
	return &QuestHandler{quests: quests, attachments: attachments}
}

// CreateQuestRequest 是创建 quest 的请求体。
type CreateQuestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// QuestResponse 是 quest 详情，附件按上传顺序排列。
type QuestResponse struct {
	ID          uint                  `json:"id"`
	OwnerID     uint                  `json:"owner_id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	Attachments []apitypes.Attachment `json:"attachments"`
}

func newQuestResponse(q *models.Quest, atts []models.QuestAttachment) QuestResponse {
	resp := QuestResponse{
		ID:          q.ID,
		OwnerID:     q.OwnerID,
		Title:       q.Title,
		Description: q.Description,
		CreatedAt:   q.CreatedAt,
		Attachments: make([]apitypes.Attachment, 0, len(atts)),
	}
	for i := range atts {
		resp.Attachments = append(resp.Attachments, atts[i].ToAPI())
	}
	return resp
}

// CreateQuest 处理 POST /api/curriculum/quests。
func (h *QuestHandler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CreateQuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	quest, err := h.quests.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, err, "创建 quest 失败")
		return
	}
	writeJSONResponse(w, http.StatusCreated, newQuestResponse(quest, nil))
}

// GetQuest 处理 GET /api/curriculum/quests/{questID}。
func (h *QuestHandler) GetQuest(w http.ResponseWriter, r *http.Request) {
	questID, ok := pathID(w, r, "questID")
	if !ok {
		return
	}
	quest, err := h.quests.Get(r.Context(), questID)
	if err != nil {
		writeServiceError(w, err, "获取 quest 失败")
		return
	}
	atts, err := h.attachments.ListByQuest(r.Context(), questID)
	if err != nil {
		writeServiceError(w, err, "获取附件列表失败")
		return
	}
	writeJSONResponse(w, http.StatusOK, newQuestResponse(quest, atts))
}
