package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hitoshi/searchreport/internal/model"
)

// SnapshotGlob はスナップショットファイル名に一致するパターン。
const SnapshotGlob = "report_*.json"

// SnapshotFileName はtの時刻に対応するスナップショットのファイル名を返す。
// 各要素はゼロ埋めしない。
func SnapshotFileName(t time.Time) string {
	return fmt.Sprintf("report_%d_%d_%d_%d_%d_%d.json",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// SnapshotReporter は投稿リスト全体を整形済みJSONとしてディレクトリに保存する。
// 同じ秒に複数回保存した場合は後の内容で上書きされる。
type SnapshotReporter struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewSnapshotReporter はSnapshotReporterの新しいインスタンスを生成する。
// nowがnilの場合はtime.Nowを使用する。
func NewSnapshotReporter(dir string, now func() time.Time, logger *slog.Logger) *SnapshotReporter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotReporter{dir: dir, now: now, logger: logger}
}

// Dir は保存先ディレクトリを返す。
func (r *SnapshotReporter) Dir() string {
	return r.dir
}

// Report はReporterインターフェースを実装する。
func (r *SnapshotReporter) Report(_ context.Context, posts []model.Post) error {
	if posts == nil {
		posts = []model.Post{}
	}
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return model.NewFileError("スナップショットのJSON変換に失敗しました", err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return model.NewFileError(fmt.Sprintf("ディレクトリ %s の作成に失敗しました", r.dir), err)
	}

	path := filepath.Join(r.dir, SnapshotFileName(r.now().Local()))
	if err := writeFile(path, data); err != nil {
		return model.NewFileError(fmt.Sprintf("%s への書き込みに失敗しました", path), err)
	}

	r.logger.Info("スナップショットを保存しました",
		slog.String("path", path),
		slog.Int("posts", len(posts)),
	)
	return nil
}

// writeFile はdataをpathに書き込む。エラーの有無にかかわらずファイルは閉じる。
func writeFile(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	_, err = f.Write(data)
	return err
}

// ReadSnapshot はスナップショットファイルを読み込む。
func ReadSnapshot(path string) ([]model.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewFileError(fmt.Sprintf("%s の読み込みに失敗しました", path), err)
	}
	var posts []model.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, model.NewFileError(fmt.Sprintf("%s のJSON解析に失敗しました", path), err)
	}
	return posts, nil
}
