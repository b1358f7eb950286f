package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/searchreport/internal/metrics"
	"github.com/hitoshi/searchreport/internal/model"
	"github.com/hitoshi/searchreport/internal/platform"
)

// Result は1回の実行結果。
type Result struct {
	RunID     string
	Entry     string
	StartedAt time.Time
	Duration  time.Duration
	PostCount int
	Fired     bool
	Err       error
}

// JobRunner はJobを1回実行するインターフェース。
type JobRunner interface {
	Run(ctx context.Context, job *Job) Result
}

// Runner は取得・抽出・条件判定・報告を順に実行する。
// 取得と抽出の失敗、報告の失敗はいずれもその実行のみを中断し、リトライしない。
type Runner struct {
	platform platform.Platform
	metrics  metrics.Recorder
	board    *StatusBoard
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner はRunnerの新しいインスタンスを生成する。
// metricsとboardはnilでもよい。nowがnilの場合はtime.Nowを使用する。
func NewRunner(
	p platform.Platform,
	m metrics.Recorder,
	board *StatusBoard,
	logger *slog.Logger,
	now func() time.Time,
) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{
		platform: p,
		metrics:  m,
		board:    board,
		logger:   logger,
		now:      now,
	}
}

// Run はJobを1回実行する。現在時刻は実行のたびに取得する。
func (r *Runner) Run(ctx context.Context, job *Job) Result {
	result := Result{
		RunID:     uuid.NewString(),
		Entry:     job.Name,
		StartedAt: r.now(),
	}
	log := r.logger.With(
		slog.String("run_id", result.RunID),
		slog.String("entry", job.Name),
	)

	result.PostCount, result.Fired, result.Err = r.run(ctx, job, result.StartedAt, log)
	result.Duration = time.Since(result.StartedAt)

	r.record(job, result, log)
	return result
}

func (r *Runner) run(ctx context.Context, job *Job, now time.Time, log *slog.Logger) (int, bool, error) {
	log.Info("検索を開始します", slog.String("platform", r.platform.Name()))

	document, err := r.platform.Request(ctx, job.Search)
	if err != nil {
		return 0, false, err
	}

	posts, err := r.platform.Parse(document, now)
	if err != nil {
		return 0, false, err
	}
	if r.metrics != nil {
		r.metrics.RecordPostsExtracted(job.Name, len(posts))
	}

	if !job.Predicate.Evaluate(posts) {
		log.Info("条件に一致しませんでした", slog.Int("posts", len(posts)))
		return len(posts), false, nil
	}

	log.Info("条件に一致したため報告します", slog.Int("posts", len(posts)))
	if err := job.Reporter.Report(ctx, posts); err != nil {
		return len(posts), true, err
	}
	if r.metrics != nil {
		r.metrics.RecordReportDispatched(job.Name)
	}
	return len(posts), true, nil
}

func (r *Runner) record(job *Job, result Result, log *slog.Logger) {
	if r.board != nil {
		r.board.Record(job, result)
	}

	attrs := []any{
		slog.Int("posts", result.PostCount),
		slog.Bool("fired", result.Fired),
		slog.Float64("duration_ms", float64(result.Duration.Milliseconds())),
	}

	if result.Err != nil {
		kind := errorKind(result.Err)
		if r.metrics != nil {
			r.metrics.RecordFiring(job.Name, metrics.ResultError)
			r.metrics.RecordError(job.Name, kind)
		}
		log.Error("検索と報告の実行に失敗しました",
			append(attrs, slog.String("kind", kind), slog.String("error", result.Err.Error()))...,
		)
		return
	}

	if r.metrics != nil {
		if result.Fired {
			r.metrics.RecordFiring(job.Name, metrics.ResultFired)
		} else {
			r.metrics.RecordFiring(job.Name, metrics.ResultNotFired)
		}
	}
	log.Info("検索と報告の実行が完了しました", attrs...)
}

// errorKind はエラーの種別名を返す。PipelineError以外はUNKNOWN。
func errorKind(err error) string {
	var pe *model.PipelineError
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	return "UNKNOWN"
}
