package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler はJobをcron式に従って実行する。
// 同じJobの実行が重なっても待ち合わせやスキップはしない。
// 実行中のエラーとpanicはログに記録し、以降のスケジュールには影響させない。
type Scheduler struct {
	cron   *cron.Cron
	runner JobRunner
	board  *StatusBoard
	logger *slog.Logger

	mu      sync.RWMutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// boardがnilの場合は実行状況を保持しない。
func NewScheduler(runner JobRunner, board *StatusBoard, logger *slog.Logger) *Scheduler {
	cl := CronLogger(logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.Recover(cl)),
			cron.WithLogger(cl),
		),
		runner:  runner,
		board:   board,
		logger:  logger,
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
	}
}

// Add はJobをスケジュールに登録する。cron式が不正な場合はエラーを返す。
func (s *Scheduler) Add(job *Job) error {
	spec, err := NormalizeSpec(job.Cron)
	if err != nil {
		return fmt.Errorf("エントリ %q の登録に失敗: %w", job.Name, err)
	}

	id, err := s.cron.AddFunc(spec, func() { s.fire(job) })
	if err != nil {
		return fmt.Errorf("エントリ %q の登録に失敗: %w", job.Name, err)
	}

	s.mu.Lock()
	s.entries[job.Name] = id
	s.mu.Unlock()

	if s.board != nil {
		s.board.Register(job)
	}
	s.logger.Info("エントリを登録しました",
		slog.String("entry", job.Name),
		slog.String("cron", spec),
	)
	return nil
}

// RunAll は全てのJobを登録順に1回ずつ実行する。
// 失敗したJobがあっても残りは実行し、全ての失敗をまとめて返す。
func (s *Scheduler) RunAll(ctx context.Context, jobs []*Job) error {
	var errs []error
	for _, job := range jobs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if result := s.runner.Run(ctx, job); result.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, result.Err))
		}
	}
	return errors.Join(errs...)
}

// Start はスケジューラを起動し、ctxがキャンセルされるまでブロックする。
// 停止時は実行中のJobの完了を待つ。
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("スケジューラを開始しました", slog.Int("entries", len(s.cron.Entries())))

	<-ctx.Done()

	s.logger.Info("スケジューラを停止しています")
	<-s.cron.Stop().Done()
	s.logger.Info("スケジューラを停止しました")
}

// Statuses は各エントリの実行状況に次回実行時刻を加えて返す。
func (s *Scheduler) Statuses() []Status {
	if s.board == nil {
		return nil
	}
	statuses := s.board.Snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range statuses {
		id, ok := s.entries[statuses[i].Entry]
		if !ok {
			continue
		}
		if next := s.cron.Entry(id).Next; !next.IsZero() {
			statuses[i].NextRun = &next
		}
	}
	return statuses
}

func (s *Scheduler) fire(job *Job) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	if ctx.Err() != nil {
		return
	}
	s.runner.Run(ctx, job)
}
