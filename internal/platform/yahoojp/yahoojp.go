// Package yahoojp はYahoo!リアルタイム検索をPlatformとして実装する。
package yahoojp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/searchreport/internal/extract"
	"github.com/hitoshi/searchreport/internal/model"
	"github.com/hitoshi/searchreport/internal/platform"
)

// Name はプラットフォームの登録名。
const Name = "yahoojp"

const (
	// DefaultEndpoint はリアルタイム検索のエンドポイント。
	DefaultEndpoint = "https://search.yahoo.co.jp/realtime/search"
	// DefaultMaxBodySize はレスポンスボディの既定の最大サイズ（5MB）。
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	userAgent = "searchreport/1.0"
)

// Selectors は検索結果ページの投稿を抽出するセレクタ。
var Selectors = extract.Selectors{
	Container: `div[class^=Tweet_bodyContainer]`,
	Author:    `span[class^=Tweet_authorName]`,
	Timestamp: `time[class^=Tweet_time] > a`,
	Content:   `div[class^=Tweet_body]`,
}

func init() {
	platform.Register(Name, func(opts platform.Options) (platform.Platform, error) {
		return New(opts), nil
	})
}

// YahooJP はplatform.Platformの実装。
type YahooJP struct {
	client *Client
	parser *Parser
}

// New はYahooJPの新しいインスタンスを生成する。
func New(opts platform.Options) *YahooJP {
	return &YahooJP{
		client: NewClient(opts.HTTPClient, opts.Endpoint, opts.Limiter, opts.MaxBodySize, opts.Observer, opts.Logger),
		parser: NewParser(NewResolver(opts.SourceLocation, opts.TargetLocation)),
	}
}

// Name はplatform.Platformインターフェースを実装する。
func (y *YahooJP) Name() string { return Name }

// Request はplatform.Platformインターフェースを実装する。
func (y *YahooJP) Request(ctx context.Context, cfg model.SearchConfig) (string, error) {
	return y.client.Request(ctx, cfg)
}

// Parse はplatform.Platformインターフェースを実装する。
func (y *YahooJP) Parse(document string, now time.Time) ([]model.Post, error) {
	return y.parser.Parse(document, now)
}

// Parser は検索結果ページを投稿のリストに変換する。
type Parser struct {
	extractor *extract.Extractor
	resolver  *Resolver
}

// NewParser はParserの新しいインスタンスを生成する。
func NewParser(resolver *Resolver) *Parser {
	return &Parser{
		extractor: extract.New(Selectors, nil),
		resolver:  resolver,
	}
}

// Parse は文書中の全投稿を抽出し、時刻表記をnow基準で解決する。
// 1件でも解決できない場合は部分的な結果を返さずにエラーを返す。
func (p *Parser) Parse(document string, now time.Time) ([]model.Post, error) {
	raws, err := p.extractor.Extract(document)
	if err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(raws))
	for _, raw := range raws {
		date, clock, err := p.resolver.Resolve(raw.TimestampText, now)
		if err != nil {
			return nil, err
		}
		posts = append(posts, model.Post{
			Author:  raw.AuthorText,
			Date:    date,
			Time:    clock,
			Content: raw.ContentText,
		})
	}
	return posts, nil
}

// Client はリアルタイム検索へのHTTPリクエストを行う。
type Client struct {
	httpClient  *http.Client
	endpoint    string
	limiter     *rate.Limiter
	maxBodySize int64
	observer    platform.FetchObserver
	logger      *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(
	httpClient *http.Client,
	endpoint string,
	limiter *rate.Limiter,
	maxBodySize int64,
	observer platform.FetchObserver,
	logger *slog.Logger,
) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:  httpClient,
		endpoint:    endpoint,
		limiter:     limiter,
		maxBodySize: maxBodySize,
		observer:    observer,
		logger:      logger,
	}
}

// SearchURL はキーワードを半角スペースで連結した検索URLを返す。
func (c *Client) SearchURL(cfg model.SearchConfig) string {
	q := strings.ReplaceAll(url.QueryEscape(cfg.Query()), "+", "%20")
	return fmt.Sprintf("%s?p=%s&ei=UTF-8&ifr=tl_sc", c.endpoint, q)
}

// Request は検索結果ページを取得する。
// 200以外のステータスと通信エラーはREQUESTエラーになる。リトライは行わない。
func (c *Client) Request(ctx context.Context, cfg model.SearchConfig) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", model.NewRequestError("リクエスト送信の待機が中断されました", err)
		}
	}

	searchURL := c.SearchURL(cfg)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", model.NewRequestError("リクエスト作成に失敗しました", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(0, duration)
		c.logger.Error("HTTPリクエストに失敗しました",
			slog.String("url", searchURL),
			slog.String("error", err.Error()),
		)
		return "", model.NewRequestError("HTTPリクエストに失敗しました", err)
	}
	defer resp.Body.Close()

	c.observe(resp.StatusCode, duration)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("予期しないHTTPステータスコード",
			slog.String("url", searchURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", model.NewRequestError(fmt.Sprintf("HTTPステータス %d が返されました", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return "", model.NewRequestError("レスポンスボディの読み取りに失敗しました", err)
	}

	c.logger.Debug("検索結果ページを取得しました",
		slog.String("url", searchURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return string(body), nil
}

func (c *Client) observe(status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveFetch(Name, status, d)
	}
}
