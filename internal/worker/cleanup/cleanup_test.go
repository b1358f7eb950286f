package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// writeSnapshot はdirにnameのファイルを作成し、更新日時をmodに設定する。
func writeSnapshot(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestNewCleanupJob_SetsRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob([]string{"out"}, 30, newTestLogger(&buf))

	if job == nil {
		t.Fatal("NewCleanupJob は nil を返してはならない")
	}
	if job.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", job.RetentionDays)
	}
}

func TestCleanupJob_Run_DeletesExpiredSnapshots(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.Local)
	dir := t.TempDir()

	old := writeSnapshot(t, dir, "report_2024_1_1_0_0_0.json", now.AddDate(0, 0, -40))
	fresh := writeSnapshot(t, dir, "report_2024_3_9_0_0_0.json", now.AddDate(0, 0, -1))
	other := writeSnapshot(t, dir, "notes.json", now.AddDate(0, 0, -400))

	var buf bytes.Buffer
	job := NewCleanupJob([]string{dir}, 30, newTestLogger(&buf))
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if exists(old) {
		t.Error("保持期間を超過したスナップショットは削除されるべき")
	}
	if !exists(fresh) {
		t.Error("保持期間内のスナップショットは削除してはならない")
	}
	if !exists(other) {
		t.Error("スナップショット以外のファイルは削除してはならない")
	}
}

func TestCleanupJob_Run_MultipleDirsAndMissingDir(t *testing.T) {
	now := time.Now()
	dirA := t.TempDir()
	dirB := t.TempDir()
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	writeSnapshot(t, dirA, "report_1.json", now.AddDate(0, 0, -10))
	writeSnapshot(t, dirB, "report_2.json", now.AddDate(0, 0, -10))

	var buf bytes.Buffer
	job := NewCleanupJob([]string{dirA, missing, dirB}, 7, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("存在しないディレクトリはエラーにしてはならない: %v", err)
	}

	var entry map[string]interface{}
	found := false
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry["deleted_count"] == float64(2) && entry["retention_days"] == float64(7) {
			found = true
		}
	}
	if !found {
		t.Errorf("ログに deleted_count=2, retention_days=7 が記録されていない。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Run_DisabledWhenRetentionIsZero(t *testing.T) {
	dir := t.TempDir()
	old := writeSnapshot(t, dir, "report_old.json", time.Now().AddDate(-1, 0, 0))

	var buf bytes.Buffer
	job := NewCleanupJob([]string{dir}, 0, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
	if !exists(old) {
		t.Error("保持日数が0の場合は削除してはならない")
	}
}

func TestCleanupJob_Run_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "report_old.json", time.Now().AddDate(0, 0, -100))

	var buf bytes.Buffer
	job := NewCleanupJob([]string{dir}, 1, newTestLogger(&buf))

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("%d回目のRun() がエラーを返した: %v", i+1, err)
		}
	}
}

func TestCleanupJob_Run_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob([]string{t.TempDir()}, 1, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := job.Run(ctx); err == nil {
		t.Error("キャンセル済みのコンテキストではエラーを返すべき")
	}
}

func TestCleanupJob_Start_RunsImmediatelyAndStops(t *testing.T) {
	dir := t.TempDir()
	old := writeSnapshot(t, dir, "report_old.json", time.Now().AddDate(0, 0, -100))

	var buf bytes.Buffer
	job := NewCleanupJob([]string{dir}, 1, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for exists(old) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("コンテキストのキャンセルでStartが戻るべき")
	}
	if exists(old) {
		t.Error("起動直後に1回実行されるべき")
	}
}
