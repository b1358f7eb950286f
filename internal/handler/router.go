// Package handler はスケジューラの状態を公開するステータスサーバーのルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/searchreport/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// StatusProvider はエントリごとの実行状況を提供する。
	StatusProvider StatusProvider

	// Metrics は /metrics で公開するハンドラー。nilの場合はルートを登録しない。
	Metrics http.Handler
}

// NewRouter はステータスサーバーのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "指定されたパスは存在しません。")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "許可されていないメソッドです。")
	})

	r.Get("/health", Health)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	statusHandler := NewStatusHandler(deps.StatusProvider)
	r.Route("/api/entries", func(r chi.Router) {
		r.Get("/", statusHandler.ListEntries)
		r.Get("/{name}", statusHandler.GetEntry)
	})

	return r
}
