// Package app はコマンドラインからの起動と全コンポーネントのワイヤリングを行う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/searchreport/internal/config"
	"github.com/hitoshi/searchreport/internal/handler"
	"github.com/hitoshi/searchreport/internal/logger"
	"github.com/hitoshi/searchreport/internal/metrics"
	"github.com/hitoshi/searchreport/internal/model"
	"github.com/hitoshi/searchreport/internal/platform"
	_ "github.com/hitoshi/searchreport/internal/platform/yahoojp"
	"github.com/hitoshi/searchreport/internal/reporter"
	"github.com/hitoshi/searchreport/internal/security"
	"github.com/hitoshi/searchreport/internal/worker/cleanup"
	"github.com/hitoshi/searchreport/internal/worker/search"
)

// newSearchClient は検索リクエスト用のHTTPクライアントを生成する。
// 接続先はSSRF対策済みのクライアントで制限する。テストでは差し替える。
var newSearchClient = func(cfg *config.Config) (*http.Client, error) {
	guard := security.NewEndpointGuard()
	if cfg.SearchEndpoint != "" {
		if err := guard.ValidateURL(cfg.SearchEndpoint); err != nil {
			return nil, model.NewConfigError("SEARCH_ENDPOINT が不正です", err)
		}
	}
	return guard.NewSafeClient(cfg.FetchTimeout), nil
}

// newNotifier はOS通知の送信先を生成する。テストでは差し替える。
var newNotifier = func() reporter.Notifier {
	return reporter.NewDesktopNotifier()
}

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		// 設定読み込み前でもエラーを出せるよう既定レベルで初期化しておく
		logger.SetupDefault(w, slog.LevelInfo)
		return nil, nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	return cfg, logger.SetupDefault(w, cfg.LogLevel), nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。SIGINTまたはSIGTERMを受信すると停止する。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(w)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// pipeline は起動時に組み立てた実行系一式。
type pipeline struct {
	registry  *prometheus.Registry
	scheduler *search.Scheduler
	jobs      []*search.Job
}

// buildPipeline は設定とエントリ定義から検索・報告の実行系を組み立てる。
// 全エントリのcron式はここで検証され、不正なものがあれば起動を中止する。
func buildPipeline(cfg *config.Config, entries *config.Entries, log *slog.Logger) (*pipeline, error) {
	client, err := newSearchClient(cfg)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.FetchMinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.FetchMinInterval), 1)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	p, err := platform.New(cfg.Platform, platform.Options{
		HTTPClient:     client,
		Endpoint:       cfg.SearchEndpoint,
		Limiter:        limiter,
		MaxBodySize:    cfg.FetchMaxSize,
		SourceLocation: cfg.SourceLocation,
		TargetLocation: cfg.TargetLocation,
		Observer:       collector,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	jobs, err := search.BuildJobs(entries, search.BuildOptions{
		TargetLocation: cfg.TargetLocation,
		Notifier:       newNotifier(),
		Sanitizer:      security.NewTextSanitizer(),
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	board := search.NewStatusBoard()
	runner := search.NewRunner(p, collector, board, log, nil)
	scheduler := search.NewScheduler(runner, board, log)
	for _, job := range jobs {
		if err := scheduler.Add(job); err != nil {
			return nil, model.NewConfigError("cron式が不正です", err)
		}
	}

	return &pipeline{registry: registry, scheduler: scheduler, jobs: jobs}, nil
}

// loadEntries はエントリ定義を読み込み、既定値で作成した場合はその旨をログに残す。
func loadEntries(path string, log *slog.Logger) (*config.Entries, error) {
	entries, created, err := config.LoadEntries(path)
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("設定ファイルが見つからないため既定の設定を作成しました", slog.String("path", path))
	}
	log.Info("設定ファイルを読み込みました",
		slog.String("path", path),
		slog.Int("entries", len(entries.SearchAndReports)),
	)
	return entries, nil
}

// runDaemon はスケジューラモードで起動し、ctxがキャンセルされるまでブロックする。
// instantがtrueの場合は起動直後に全エントリを1回ずつ実行する。
func runDaemon(ctx context.Context, cfg *config.Config, log *slog.Logger, instant bool) error {
	entries, err := loadEntries(cfg.EntriesPath, log)
	if err != nil {
		return err
	}

	pl, err := buildPipeline(cfg, entries, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var server *http.Server
	if cfg.StatusAddr != "" {
		server = &http.Server{
			Addr: cfg.StatusAddr,
			Handler: handler.NewRouter(&handler.RouterDeps{
				Logger:         log,
				StatusProvider: pl.scheduler,
				Metrics:        metrics.Handler(pl.registry),
			}),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info("ステータスサーバーを起動します", slog.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("ステータスサーバーの起動に失敗しました", slog.String("error", err.Error()))
			}
		}()
	}

	cleanupJob := cleanup.NewCleanupJob(entries.SnapshotDirs(), cfg.SnapshotRetentionDays, log)
	go cleanupJob.Start(ctx, cfg.CleanupInterval)

	if instant {
		// 初回実行の失敗はログに残し、スケジュール実行は継続する
		if err := pl.scheduler.RunAll(ctx, pl.jobs); err != nil {
			log.Warn("初回実行で失敗したエントリがあります", slog.String("error", err.Error()))
		}
	}

	pl.scheduler.Start(ctx)

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ステータスサーバーの停止に失敗: %w", err)
		}
	}

	log.Info("停止しました")
	return nil
}

// runOnce は全エントリを1回ずつ実行して終了する。
// 失敗したエントリがあればそれらをまとめたエラーを返す。
func runOnce(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	entries, err := loadEntries(cfg.EntriesPath, log)
	if err != nil {
		return err
	}
	pl, err := buildPipeline(cfg, entries, log)
	if err != nil {
		return err
	}
	return pl.scheduler.RunAll(ctx, pl.jobs)
}

// runParse は保存済みの検索結果ページを解析し、投稿をJSONで出力する。
func runParse(cfg *config.Config, log *slog.Logger, path string, now time.Time) ([]model.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewFileError(fmt.Sprintf("%s の読み込みに失敗しました", path), err)
	}

	p, err := platform.New(cfg.Platform, platform.Options{
		SourceLocation: cfg.SourceLocation,
		TargetLocation: cfg.TargetLocation,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}
	return p.Parse(string(data), now)
}

// healthcheckURL はステータスサーバーの待ち受けアドレスから /health のURLを組み立てる。
// ホストが省略されているか全アドレスでの待ち受けの場合はlocalhostに接続する。
func healthcheckURL(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("STATUS_ADDR %q を解釈できません: %w", addr, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/health", nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(addr string) error {
	if addr == "" {
		return errors.New("STATUS_ADDR が設定されていないためヘルスチェックできません")
	}
	url, err := healthcheckURL(addr)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("ヘルスチェックに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ヘルスチェックのステータスが %d でした", resp.StatusCode)
	}
	return nil
}
