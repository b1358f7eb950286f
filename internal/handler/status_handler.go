package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/searchreport/internal/middleware"
	"github.com/hitoshi/searchreport/internal/worker/search"
)

// StatusProvider はエントリごとの実行状況を返すインターフェース。
// *search.Scheduler が実装する。
type StatusProvider interface {
	Statuses() []search.Status
}

// StatusHandler は実行状況APIのハンドラー。
type StatusHandler struct {
	provider StatusProvider
}

// NewStatusHandler はStatusHandlerの新しいインスタンスを生成する。
func NewStatusHandler(provider StatusProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

// entriesResponse は GET /api/entries のレスポンス。
type entriesResponse struct {
	Entries []search.Status `json:"entries"`
}

// ListEntries は GET /api/entries を処理する。
// 全エントリの直近の実行状況をエントリ名の昇順で返す。
func (h *StatusHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	statuses := h.statuses()
	if statuses == nil {
		statuses = []search.Status{}
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: statuses})
}

// GetEntry は GET /api/entries/{name} を処理する。
func (h *StatusHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, "INVALID_NAME", "エントリ名が不正です。")
		return
	}

	for _, st := range h.statuses() {
		if st.Entry == name {
			writeJSON(w, http.StatusOK, st)
			return
		}
	}
	middleware.WriteErrorResponse(w, http.StatusNotFound, "ENTRY_NOT_FOUND", "指定されたエントリは存在しません。")
}

func (h *StatusHandler) statuses() []search.Status {
	if h.provider == nil {
		return nil
	}
	return h.provider.Statuses()
}

// Health は GET /health を処理する。プロセスが応答できれば200を返す。
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
