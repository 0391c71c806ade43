package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"quest-go/internal/apitypes"
	"quest-go/internal/middleware"
	"quest-go/internal/services"
	"quest-go/internal/storage"
)

// writeJSONResponse 是一个辅助函数，用于发送 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// 头部已经发出，只能记录
			log.Printf("无法编码 JSON 响应: %v", err)
		}
	}
}

// writeJSONError 是一个辅助函数，用于发送 JSON 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, apitypes.ErrorResponse{Error: message})
}

// writeServiceError 把服务层的哨兵错误映射为 HTTP 状态码，其余错误记录日志后返回 fallback。
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrQuestNotFound), errors.Is(err, services.ErrAttachmentNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	default:
		log.Printf("%s: %v", fallback, err)
		writeJSONError(w, fallback, http.StatusInternalServerError)
	}
}

// pathID 解析路由变量中的 ID，失败时已写入 400 响应。
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := storage.StrToUint(mux.Vars(r)[name])
	if err != nil {
		writeJSONError(w, "无效的 "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// requireUser 取出已认证用户的 ID，失败时已写入 401 响应。
func requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}
