package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponseBody はステータスサーバーのエラーレスポンス。
// RequestIDはLoggingミドルウェアが採番したX-Request-IDで、ログとの突き合わせに使う。
type ErrorResponseBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteErrorResponse はエラーをJSONで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:      code,
		Message:   message,
		RequestID: h.Get(RequestIDHeader),
	})
}

// WriteInternalServerError は詳細を伏せた500を書き込む。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "内部エラーが発生しました。")
}
