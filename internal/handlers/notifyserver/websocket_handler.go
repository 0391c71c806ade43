package notifyserver

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"quest-go/internal/auth"
	"quest-go/internal/config"
	"quest-go/internal/middleware"
	"quest-go/internal/storage"
	ws "quest-go/internal/websocket"
)

// WebSocketHandler 负责 quest 附件事件订阅的 websocket 连接。
type WebSocketHandler struct {
	hub       *ws.Hub
	blacklist auth.TokenBlacklist
	cfg       config.Config
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。blacklist 可以为 nil。
func NewWebSocketHandler(hub *ws.Hub, blacklist auth.TokenBlacklist, cfg config.Config) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, blacklist: blacklist, cfg: cfg}
}

// ServeWS 处理 GET /ws/quests/{questID}。令牌可以放在 Authorization 头或 ?token= 中，
// 浏览器的 websocket API 不能设置请求头。
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	questID, err := storage.StrToUint(mux.Vars(r)["questID"])
	if err != nil {
		http.Error(w, "无效的 questID", http.StatusBadRequest)
		return
	}

	token := middleware.TokenFromRequest(r, true)
	if token == "" {
		http.Error(w, "缺少认证令牌", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		log.Printf("WebSocket 连接尝试失败：令牌无效: %v", err)
		http.Error(w, "令牌无效", http.StatusUnauthorized)
		return
	}

	ws.ServeQuestSubscriber(h.hub, questID, claims.UserID, w, r, h.cfg.WebSocket)
}
