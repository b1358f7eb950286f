// Package platform は検索対象サービスごとの実装を名前で登録・取得する仕組みを提供する。
// 各実装は検索リクエストの送信と、取得した文書から投稿への変換を担う。
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/searchreport/internal/model"
)

// Platform は1つの検索サービスに対する取得とパースの組。
type Platform interface {
	// Name は登録名を返す。
	Name() string
	// Request は検索設定に従って検索結果ページを取得し、文書全体を返す。
	Request(ctx context.Context, cfg model.SearchConfig) (string, error)
	// Parse は文書から投稿を抽出する。nowは相対時刻表記の基準時刻。
	Parse(document string, now time.Time) ([]model.Post, error)
}

// FetchObserver は検索リクエストの結果を受け取るフック。
// メトリクス収集に使用する。
type FetchObserver interface {
	ObserveFetch(platform string, statusCode int, duration time.Duration)
}

// Options はPlatform生成時の共通オプション。
type Options struct {
	// HTTPClient は検索リクエストに使用するクライアント。nilの場合はhttp.DefaultClient。
	HTTPClient *http.Client
	// Endpoint は検索エンドポイントのURL。空の場合は実装ごとの既定値。
	Endpoint string
	// Limiter は外向きリクエストの送信間隔を制御する。nilの場合は制限しない。
	Limiter *rate.Limiter
	// MaxBodySize はレスポンスボディの最大読み取りバイト数。0以下の場合は既定値。
	MaxBodySize int64
	// SourceLocation は検索サービスが表示する時刻のタイムゾーン。
	SourceLocation *time.Location
	// TargetLocation は投稿の日時を表現するタイムゾーン。
	TargetLocation *time.Location
	// Observer はリクエスト結果の通知先。nilの場合は通知しない。
	Observer FetchObserver
	Logger   *slog.Logger
}

// Factory はOptionsからPlatformを生成する関数。
type Factory func(opts Options) (Platform, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register は名前付きでPlatformの生成関数を登録する。
// 同名の二重登録はプログラミングエラーとしてpanicする。
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if factory == nil {
		panic("platform: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("platform: Register called twice for %s", name))
	}
	factories[name] = factory
}

// New は登録済みの生成関数を使ってPlatformを生成する。
func New(name string, opts Options) (Platform, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, model.NewConfigError(fmt.Sprintf("未登録のプラットフォームです: %s", name), nil)
	}
	return factory(opts)
}

// Names は登録済みのプラットフォーム名を昇順で返す。
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
