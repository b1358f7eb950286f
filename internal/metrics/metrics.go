// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 実行結果のラベル値
const (
	ResultFired    = "fired"
	ResultNotFired = "not_fired"
	ResultError    = "error"
)

// Recorder はメトリクス収集のインターフェース。
// 検索ワーカーから利用する。
type Recorder interface {
	RecordFiring(entry, result string)
	RecordPostsExtracted(entry string, count int)
	RecordReportDispatched(entry string)
	RecordError(entry, kind string)
	ObserveFetch(platform string, statusCode int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	firings           *prometheus.CounterVec
	postsExtracted    *prometheus.CounterVec
	reportsDispatched *prometheus.CounterVec
	errors            *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
	fetchLatency      *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		firings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchreport_firings_total",
			Help: "エントリごと・結果ごとの実行回数",
		}, []string{"entry", "result"}),
		postsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchreport_posts_extracted_total",
			Help: "抽出した投稿の合計数",
		}, []string{"entry"}),
		reportsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchreport_reports_dispatched_total",
			Help: "全ての報告処理が成功した回数",
		}, []string{"entry"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchreport_errors_total",
			Help: "エラー種別ごとの失敗回数",
		}, []string{"entry", "kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchreport_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数（通信エラーは0）",
		}, []string{"platform", "status_code"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "searchreport_fetch_latency_seconds",
			Help:    "検索リクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform"}),
	}

	reg.MustRegister(
		c.firings,
		c.postsExtracted,
		c.reportsDispatched,
		c.errors,
		c.httpStatus,
		c.fetchLatency,
	)

	return c
}

// RecordFiring は1回の実行結果を記録する。
func (c *Collector) RecordFiring(entry, result string) {
	c.firings.WithLabelValues(entry, result).Inc()
}

// RecordPostsExtracted は抽出した投稿数を記録する。
func (c *Collector) RecordPostsExtracted(entry string, count int) {
	c.postsExtracted.WithLabelValues(entry).Add(float64(count))
}

// RecordReportDispatched は報告処理の成功を記録する。
func (c *Collector) RecordReportDispatched(entry string) {
	c.reportsDispatched.WithLabelValues(entry).Inc()
}

// RecordError はエラー種別を記録する。
func (c *Collector) RecordError(entry, kind string) {
	c.errors.WithLabelValues(entry, kind).Inc()
}

// ObserveFetch は検索リクエストのステータスとレイテンシを記録する。
// platform.FetchObserverインターフェースを実装する。
func (c *Collector) ObserveFetch(platform string, statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(platform, strconv.Itoa(statusCode)).Inc()
	c.fetchLatency.WithLabelValues(platform).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
