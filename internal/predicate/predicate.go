// Package predicate は投稿リストに対する発火条件を提供する。
// 条件は起動時に1度だけ組み立て、以降は複数の実行から読み取り専用で共有する。
package predicate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/searchreport/internal/model"
)

// Predicate は投稿リストが条件を満たすかを判定する。
type Predicate interface {
	Evaluate(posts []model.Post) bool
}

// Func は関数をPredicateとして扱うアダプタ。
type Func func(posts []model.Post) bool

// Evaluate はPredicateインターフェースを実装する。
func (f Func) Evaluate(posts []model.Post) bool {
	return f(posts)
}

// NumberPerDuration は時刻付きの投稿がduration未満の間にn件以上集中しているかを判定する。
// 時刻順に並べた連続するn件のうち、いずれかの区間で先頭と末尾の差がduration未満であれば成立する。
// 最新のn件に限らず、過去の区間でも成立する。
type NumberPerDuration struct {
	n        int
	duration time.Duration
}

// NewNumberPerDuration はNumberPerDurationの新しいインスタンスを生成する。
// nとdurationは正の値でなければならない。
func NewNumberPerDuration(n int, duration time.Duration) (*NumberPerDuration, error) {
	if n <= 0 {
		return nil, model.NewConfigError(fmt.Sprintf("件数の閾値は1以上でなければなりません: %d", n), nil)
	}
	if duration <= 0 {
		return nil, model.NewConfigError(fmt.Sprintf("期間は正の値でなければなりません: %s", duration), nil)
	}
	return &NumberPerDuration{n: n, duration: duration}, nil
}

// Evaluate はPredicateインターフェースを実装する。
func (p *NumberPerDuration) Evaluate(posts []model.Post) bool {
	times := make([]time.Time, 0, len(posts))
	for _, post := range posts {
		if at, ok := post.NaiveDateTime(); ok {
			times = append(times, at)
		}
	}
	if len(times) < p.n {
		return false
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	for last := p.n - 1; last < len(times); last++ {
		if times[last].Sub(times[last-p.n+1]) < p.duration {
			return true
		}
	}
	return false
}

// ContainsKeywords はいずれかの投稿本文がいずれかのキーワードを含むかを判定する。
// 大文字小文字を区別する単純な部分文字列一致。
type ContainsKeywords struct {
	keywords []string
}

// NewContainsKeywords はContainsKeywordsの新しいインスタンスを生成する。
func NewContainsKeywords(keywords []string) *ContainsKeywords {
	return &ContainsKeywords{keywords: append([]string(nil), keywords...)}
}

// Evaluate はPredicateインターフェースを実装する。
func (p *ContainsKeywords) Evaluate(posts []model.Post) bool {
	for _, post := range posts {
		for _, kw := range p.keywords {
			if strings.Contains(post.Content, kw) {
				return true
			}
		}
	}
	return false
}

// LatestPostTime は最新の時刻付き投稿が現在時刻からduration以内かを判定する。
// 現在時刻は判定のたびに取得し、locの壁時計で投稿の日時と比較する。
type LatestPostTime struct {
	duration time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewLatestPostTime はLatestPostTimeの新しいインスタンスを生成する。
// locがnilの場合はtime.Local、nowがnilの場合はtime.Nowを使用する。
func NewLatestPostTime(duration time.Duration, loc *time.Location, now func() time.Time) (*LatestPostTime, error) {
	if duration <= 0 {
		return nil, model.NewConfigError(fmt.Sprintf("期間は正の値でなければなりません: %s", duration), nil)
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &LatestPostTime{duration: duration, loc: loc, now: now}, nil
}

// Evaluate はPredicateインターフェースを実装する。
func (p *LatestPostTime) Evaluate(posts []model.Post) bool {
	_, latest, ok := model.LatestPost(posts)
	if !ok {
		return false
	}
	now := model.Naive(p.now().In(p.loc))
	return now.Sub(latest) < p.duration
}

// List は複数の条件の論理和。
// 追加順に評価し、最初に成立した時点で残りは評価しない。空の場合は成立しない。
type List struct {
	predicates []Predicate
}

// NewList はListの新しいインスタンスを生成する。
func NewList(predicates ...Predicate) *List {
	return &List{predicates: append([]Predicate(nil), predicates...)}
}

// Add は条件を末尾に追加する。共有を始める前にのみ呼び出すこと。
func (l *List) Add(p Predicate) {
	l.predicates = append(l.predicates, p)
}

// Len は条件の数を返す。
func (l *List) Len() int {
	return len(l.predicates)
}

// Evaluate はPredicateインターフェースを実装する。
func (l *List) Evaluate(posts []model.Post) bool {
	for _, p := range l.predicates {
		if p.Evaluate(posts) {
			return true
		}
	}
	return false
}
