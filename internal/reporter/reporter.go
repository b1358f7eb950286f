// Package reporter は条件が成立したときの報告処理を提供する。
// 報告処理は起動時に組み立て、以降は複数の実行から読み取り専用で共有する。
package reporter

import (
	"context"

	"github.com/hitoshi/searchreport/internal/model"
)

// Reporter は投稿リストを報告する。
type Reporter interface {
	Report(ctx context.Context, posts []model.Post) error
}

// Func は関数をReporterとして扱うアダプタ。
type Func func(ctx context.Context, posts []model.Post) error

// Report はReporterインターフェースを実装する。
func (f Func) Report(ctx context.Context, posts []model.Post) error {
	return f(ctx, posts)
}

// List は複数のReporterを追加順に実行する。
// 途中で失敗した場合はそのエラーを返し、以降のReporterは実行しない。
type List struct {
	reporters []Reporter
}

// NewList はListの新しいインスタンスを生成する。
func NewList(reporters ...Reporter) *List {
	return &List{reporters: append([]Reporter(nil), reporters...)}
}

// Add はReporterを末尾に追加する。共有を始める前にのみ呼び出すこと。
func (l *List) Add(r Reporter) {
	l.reporters = append(l.reporters, r)
}

// Len はReporterの数を返す。
func (l *List) Len() int {
	return len(l.reporters)
}

// Report はReporterインターフェースを実装する。
func (l *List) Report(ctx context.Context, posts []model.Post) error {
	for _, r := range l.reporters {
		if err := r.Report(ctx, posts); err != nil {
			return err
		}
	}
	return nil
}
