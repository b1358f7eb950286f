package search

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/searchreport/internal/config"
	"github.com/hitoshi/searchreport/internal/model"
	"github.com/hitoshi/searchreport/internal/reporter"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestBuildJob_DefaultEntry(t *testing.T) {
	var buf bytes.Buffer
	entry := config.DefaultEntry()
	entry.Keywords = []string{"Rust", "CLI"}

	job, err := BuildJob(entry, BuildOptions{
		TargetLocation: time.UTC,
		Notifier:       &mockNotifier{},
		Logger:         newTestLogger(&buf),
	})
	if err != nil {
		t.Fatalf("BuildJob でエラー: %v", err)
	}
	if job.Name != "Rust CLI" {
		t.Errorf("Name = %q, want %q", job.Name, "Rust CLI")
	}
	if job.Search.Query() != "Rust CLI" {
		t.Errorf("Query = %q", job.Search.Query())
	}
	if job.Cron != "0 0 6,12 * * * *" {
		t.Errorf("Cron = %q", job.Cron)
	}
}

func TestBuildJob_PredicatesAreORed(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2023, time.November, 24, 12, 0, 0, 0, time.UTC)
	entry := config.Entry{
		Cron:                  "0 * * * * *",
		ConditionContain:      []string{"CLI"},
		ConditionLatestInHour: intPtr(1),
	}

	job, err := BuildJob(entry, BuildOptions{
		TargetLocation: time.UTC,
		Logger:         newTestLogger(&buf),
		Now:            func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("BuildJob でエラー: %v", err)
	}

	recent := []model.Post{{Date: model.Date{Year: 2023, Month: time.November, Day: 24}, Time: clockPtr(11, 30), Content: "none"}}
	if !job.Predicate.Evaluate(recent) {
		t.Error("最新投稿の条件のみ成立でも成立するべき")
	}
	keyword := []model.Post{{Date: model.Date{Year: 2023, Month: time.November, Day: 1}, Content: "CLI"}}
	if !job.Predicate.Evaluate(keyword) {
		t.Error("キーワード条件のみ成立でも成立するべき")
	}
	neither := []model.Post{{Date: model.Date{Year: 2023, Month: time.November, Day: 1}, Time: clockPtr(1, 0), Content: "none"}}
	if job.Predicate.Evaluate(neither) {
		t.Error("どの条件も成立しない場合は不成立")
	}
}

func TestBuildJob_NoConditionsNeverFires(t *testing.T) {
	var buf bytes.Buffer
	job, err := BuildJob(config.Entry{Cron: "* * * * *"}, BuildOptions{Logger: newTestLogger(&buf)})
	if err != nil {
		t.Fatalf("BuildJob でエラー: %v", err)
	}
	if job.Predicate.Evaluate([]model.Post{{Content: "x"}}) {
		t.Error("条件が無いエントリは成立してはならない")
	}
}

func TestBuildJob_ReportersInOrder(t *testing.T) {
	var buf bytes.Buffer
	dir := filepath.Join(t.TempDir(), "reports")
	notifier := &mockNotifier{}
	now := time.Date(2023, time.November, 24, 12, 0, 0, 0, time.Local)

	entry := config.Entry{
		Cron:             "* * * * *",
		ReportJSONDir:    strPtr(dir),
		ReportOSContent:  strPtr("一致しました"),
		ReportLatestPost: true,
	}
	job, err := BuildJob(entry, BuildOptions{
		Notifier: notifier,
		Logger:   newTestLogger(&buf),
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("BuildJob でエラー: %v", err)
	}

	posts := []model.Post{{Author: "a", Date: model.Date{Year: 2023, Month: time.November, Day: 24}, Time: clockPtr(9, 0), Content: "c"}}
	if err := job.Reporter.Report(context.Background(), posts); err != nil {
		t.Fatalf("Report でエラー: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, reporter.SnapshotFileName(now))); err != nil {
		t.Errorf("スナップショットが作成されるべき: %v", err)
	}
	if len(notifier.titles) != 2 ||
		notifier.titles[0] != reporter.StaticNotificationTitle ||
		notifier.titles[1] != reporter.LatestPostNotificationTitle {
		t.Errorf("通知の順序 = %v", notifier.titles)
	}
}

func TestBuildJob_NotificationWithoutNotifier(t *testing.T) {
	var buf bytes.Buffer
	entry := config.Entry{Cron: "* * * * *", ReportOSContent: strPtr("x")}

	_, err := BuildJob(entry, BuildOptions{Logger: newTestLogger(&buf)})
	if !model.IsKind(err, model.ErrKindConfig) {
		t.Errorf("err = %v, want %s", err, model.ErrKindConfig)
	}
}

func TestBuildJob_InvalidEntry(t *testing.T) {
	var buf bytes.Buffer
	_, err := BuildJob(config.Entry{Cron: "* * * * *", ConditionNPerHour: intPtr(0)}, BuildOptions{Logger: newTestLogger(&buf)})
	if !model.IsKind(err, model.ErrKindConfig) {
		t.Errorf("err = %v, want %s", err, model.ErrKindConfig)
	}
}

func TestBuildJobs_DisambiguatesDuplicateNames(t *testing.T) {
	var buf bytes.Buffer
	entries := &config.Entries{SearchAndReports: []config.Entry{
		{Keywords: []string{"Go"}, Cron: "* * * * *"},
		{Keywords: []string{"Go"}, Cron: "0 * * * *"},
		{Keywords: []string{"Rust"}, Cron: "* * * * *"},
	}}

	jobs, err := BuildJobs(entries, BuildOptions{Logger: newTestLogger(&buf)})
	if err != nil {
		t.Fatalf("BuildJobs でエラー: %v", err)
	}
	names := []string{jobs[0].Name, jobs[1].Name, jobs[2].Name}
	want := []string{"Go", "Go #2", "Rust"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}
