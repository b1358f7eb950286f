package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/hitoshi/searchreport/internal/model"
)

const (
	// StaticNotificationTitle は固定メッセージ通知のタイトル。
	StaticNotificationTitle = "Search and Reporter Notification"
	// LatestPostNotificationTitle は最新投稿通知のタイトル。
	LatestPostNotificationTitle = "Latest Post Notification"

	latestPostLayout = "2006-01-02 15:04:05"
)

// Notifier はOSのデスクトップ通知を送信する。
type Notifier interface {
	Notify(title, body string) error
}

// Sanitizer は通知本文に含めるテキストを無害化する。
type Sanitizer interface {
	Sanitize(text string) string
}

// DesktopNotifier はbeeepを使ってOSの通知サービスに通知を送信する。
type DesktopNotifier struct{}

// NewDesktopNotifier はDesktopNotifierの新しいインスタンスを生成する。
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{}
}

// Notify はNotifierインターフェースを実装する。
func (n *DesktopNotifier) Notify(title, body string) error {
	if err := beeep.Notify(title, body, ""); err != nil {
		return model.NewOSError("デスクトップ通知の送信に失敗しました", err)
	}
	return nil
}

// StaticNotificationReporter は投稿の内容にかかわらず固定の本文で通知する。
type StaticNotificationReporter struct {
	notifier Notifier
	message  string
	logger   *slog.Logger
}

// NewStaticNotificationReporter はStaticNotificationReporterの新しいインスタンスを生成する。
func NewStaticNotificationReporter(notifier Notifier, message string, logger *slog.Logger) *StaticNotificationReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticNotificationReporter{notifier: notifier, message: message, logger: logger}
}

// Report はReporterインターフェースを実装する。
func (r *StaticNotificationReporter) Report(_ context.Context, _ []model.Post) error {
	if err := notify(r.notifier, StaticNotificationTitle, r.message); err != nil {
		return err
	}
	r.logger.Info("通知を送信しました", slog.String("title", StaticNotificationTitle))
	return nil
}

// LatestPostNotificationReporter は最新の時刻付き投稿の投稿者・日時・本文を通知する。
type LatestPostNotificationReporter struct {
	notifier  Notifier
	sanitizer Sanitizer
	logger    *slog.Logger
}

// NewLatestPostNotificationReporter はLatestPostNotificationReporterの新しいインスタンスを生成する。
// sanitizerがnilの場合は本文をそのまま使用する。
func NewLatestPostNotificationReporter(notifier Notifier, sanitizer Sanitizer, logger *slog.Logger) *LatestPostNotificationReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LatestPostNotificationReporter{notifier: notifier, sanitizer: sanitizer, logger: logger}
}

// Report はReporterインターフェースを実装する。
// 時刻付きの投稿が無い場合はNO_ELIGIBLE_POSTエラーを返す。
func (r *LatestPostNotificationReporter) Report(_ context.Context, posts []model.Post) error {
	post, at, ok := model.LatestPost(posts)
	if !ok {
		return model.NewNoEligiblePostError()
	}

	body := LatestPostBody(r.sanitize(post.Author), at, r.sanitize(post.Content))
	if err := notify(r.notifier, LatestPostNotificationTitle, body); err != nil {
		return err
	}
	r.logger.Info("通知を送信しました",
		slog.String("title", LatestPostNotificationTitle),
		slog.String("author", post.Author),
		slog.String("posted_at", at.Format(latestPostLayout)),
	)
	return nil
}

func (r *LatestPostNotificationReporter) sanitize(s string) string {
	if r.sanitizer == nil {
		return s
	}
	return r.sanitizer.Sanitize(s)
}

// LatestPostBody は最新投稿通知の本文を組み立てる。
func LatestPostBody(author string, at time.Time, content string) string {
	return fmt.Sprintf("%s: %s\n%s", author, at.Format(latestPostLayout), content)
}

// notify は通知を送信し、失敗をOSエラーとして返す。
func notify(n Notifier, title, body string) error {
	if err := n.Notify(title, body); err != nil {
		if model.IsKind(err, model.ErrKindOS) {
			return err
		}
		return model.NewOSError("通知の送信に失敗しました", err)
	}
	return nil
}
