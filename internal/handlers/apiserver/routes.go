package apiserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Handlers 汇总 API 服务器的所有处理器。
type Handlers struct {
	Auth   *AuthHandler
	Quests *QuestHandler
	Upload *UploadHandler
}

// NewRouter 注册全部路由。authMW 保护 /api/curriculum 下的接口；
// uploadsDir 不为空时在 uploadsURL 下提供本地存储的文件。
func NewRouter(h Handlers, authMW mux.MiddlewareFunc, uploadsURL, uploadsDir string) *mux.Router {
	r := mux.NewRouter()

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api/curriculum").Subrouter()
	api.Use(authMW)
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/quests", h.Quests.CreateQuest).Methods(http.MethodPost)
	api.HandleFunc("/quests/{questID}", h.Quests.GetQuest).Methods(http.MethodGet)
	api.HandleFunc("/quests/{questID}/attachments", h.Upload.ListAttachmentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/upload", h.Upload.UploadFileHandler).Methods(http.MethodPost)
	api.HandleFunc("/attachments/{attachmentID}", h.Upload.DeleteAttachmentHandler).Methods(http.MethodDelete)

	if uploadsDir != "" {
		prefix := strings.TrimSuffix(uploadsURL, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(uploadsDir))))
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
