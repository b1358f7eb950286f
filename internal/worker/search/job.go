// Package search は検索・抽出・条件判定・報告のパイプラインを
// エントリごとにcronスケジュールで実行する。
package search

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/searchreport/internal/config"
	"github.com/hitoshi/searchreport/internal/model"
	"github.com/hitoshi/searchreport/internal/predicate"
	"github.com/hitoshi/searchreport/internal/reporter"
)

// Job は1件のエントリの実行単位。
// 起動時に組み立て、以降は全ての実行から読み取り専用で共有する。
type Job struct {
	Name      string
	Cron      string
	Search    model.SearchConfig
	Predicate predicate.Predicate
	Reporter  reporter.Reporter
}

// BuildOptions はエントリからJobを組み立てる際の依存。
type BuildOptions struct {
	// TargetLocation は投稿の日時を表現するタイムゾーン。
	TargetLocation *time.Location
	Notifier       reporter.Notifier
	Sanitizer      reporter.Sanitizer
	Logger         *slog.Logger
	// Now は現在時刻の取得関数。nilの場合はtime.Now。
	Now func() time.Time
}

// BuildJob はエントリ定義から条件と報告先を組み立てる。
// 条件はcondition_n_per_h, condition_contain, condition_latest_in_hの順、
// 報告先はreport_json_dir, report_os_content, report_latest_postの順に並べる。
func BuildJob(entry config.Entry, opts BuildOptions) (*Job, error) {
	if err := entry.Validate(); err != nil {
		return nil, model.NewConfigError(fmt.Sprintf("エントリ %q が不正です", entry.Name()), err)
	}

	preds := predicate.NewList()
	if entry.ConditionNPerHour != nil {
		p, err := predicate.NewNumberPerDuration(*entry.ConditionNPerHour, time.Hour)
		if err != nil {
			return nil, err
		}
		preds.Add(p)
	}
	if entry.ConditionContain != nil {
		preds.Add(predicate.NewContainsKeywords(entry.ConditionContain))
	}
	if entry.ConditionLatestInHour != nil {
		p, err := predicate.NewLatestPostTime(time.Duration(*entry.ConditionLatestInHour)*time.Hour, opts.TargetLocation, opts.Now)
		if err != nil {
			return nil, err
		}
		preds.Add(p)
	}

	reporters := reporter.NewList()
	if entry.ReportJSONDir != nil {
		reporters.Add(reporter.NewSnapshotReporter(*entry.ReportJSONDir, opts.Now, opts.Logger))
	}
	if entry.ReportOSContent != nil || entry.ReportLatestPost {
		if opts.Notifier == nil {
			return nil, model.NewConfigError(fmt.Sprintf("エントリ %q に通知先が設定されていません", entry.Name()), nil)
		}
	}
	if entry.ReportOSContent != nil {
		reporters.Add(reporter.NewStaticNotificationReporter(opts.Notifier, *entry.ReportOSContent, opts.Logger))
	}
	if entry.ReportLatestPost {
		reporters.Add(reporter.NewLatestPostNotificationReporter(opts.Notifier, opts.Sanitizer, opts.Logger))
	}

	return &Job{
		Name:      entry.Name(),
		Cron:      entry.Cron,
		Search:    entry.SearchConfig(),
		Predicate: preds,
		Reporter:  reporters,
	}, nil
}

// BuildJobs は全エントリのJobを組み立てる。1件でも不正な場合はエラーを返す。
// 同じキーワードのエントリが複数ある場合、2件目以降の名前には "#2" のように連番を付ける。
func BuildJobs(entries *config.Entries, opts BuildOptions) ([]*Job, error) {
	jobs := make([]*Job, 0, len(entries.SearchAndReports))
	seen := make(map[string]int)
	for _, entry := range entries.SearchAndReports {
		job, err := BuildJob(entry, opts)
		if err != nil {
			return nil, err
		}
		seen[job.Name]++
		if n := seen[job.Name]; n > 1 {
			job.Name = fmt.Sprintf("%s #%d", job.Name, n)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
