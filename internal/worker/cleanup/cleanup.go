// Package cleanup は保存済みスナップショットの自動削除ジョブを提供する。
// 保持日数を超過した report_*.json を、設定された保存先ディレクトリから定期的に削除する。
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hitoshi/searchreport/internal/model"
	"github.com/hitoshi/searchreport/internal/reporter"
)

// CleanupJob は保持期間を超過したスナップショットの削除ジョブ。
// 削除対象が無い場合やディレクトリが存在しない場合もエラーにしない。
type CleanupJob struct {
	dirs          []string
	logger        *slog.Logger
	now           func() time.Time
	RetentionDays int // 0以下の場合は削除しない
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(dirs []string, retentionDays int, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		dirs:          dirs,
		logger:        logger,
		now:           time.Now,
		RetentionDays: retentionDays,
	}
}

// Run は更新日時がRetentionDays日前より古いスナップショットを削除する。
// 削除に失敗したファイルがあっても残りの処理は続け、失敗をまとめて返す。
func (j *CleanupJob) Run(ctx context.Context) error {
	if j.RetentionDays <= 0 {
		return nil
	}

	start := time.Now()
	cutoff := j.now().AddDate(0, 0, -j.RetentionDays)

	var deleted int
	var errs []error
	for _, dir := range j.dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := j.cleanDir(dir, cutoff)
		deleted += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	duration := time.Since(start)
	if err := errors.Join(errs...); err != nil {
		j.logger.Error("スナップショットのクリーンアップに失敗しました",
			slog.String("error", err.Error()),
			slog.Int("deleted_count", deleted),
			slog.Int("retention_days", j.RetentionDays),
		)
		return err
	}

	j.logger.Info("スナップショットのクリーンアップが完了しました",
		slog.Int("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回Runを実行し、以降はintervalごとに実行する。
// ctxがキャンセルされるまでブロックする。intervalが0以下の場合は24時間ごとに実行する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if j.RetentionDays <= 0 {
		j.logger.Debug("スナップショットの保持日数が未設定のためクリーンアップは無効です")
		return
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}

func (j *CleanupJob) cleanDir(dir string, cutoff time.Time) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, reporter.SnapshotGlob))
	if err != nil {
		return 0, model.NewFileError(fmt.Sprintf("%s の探索に失敗しました", dir), err)
	}

	var deleted int
	var errs []error
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, model.NewFileError(fmt.Sprintf("%s の情報取得に失敗しました", path), err))
			continue
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, model.NewFileError(fmt.Sprintf("%s の削除に失敗しました", path), err))
			continue
		}
		j.logger.Debug("スナップショットを削除しました", slog.String("path", path))
		deleted++
	}
	return deleted, errors.Join(errs...)
}
