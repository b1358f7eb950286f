// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04:05.999999999"
)

// Post は検索結果ページから抽出した1件の投稿を表す。
// Timeがnilの場合は日付しか復元できなかった投稿であり、
// 時刻を必要とする条件判定の対象外となる。
type Post struct {
	Author  string `json:"author"`
	Date    Date   `json:"date"`
	Time    *Clock `json:"time"`
	Content string `json:"content"`
}

// Eligible は時刻まで復元できた投稿かどうかを返す。
func (p Post) Eligible() bool {
	return p.Time != nil
}

// NaiveDateTime は日付と時刻を結合した壁時計の日時を返す。
// タイムゾーンを持たない値として扱うため、ロケーションには常にUTCを用いる。
// 時刻が無い投稿の場合はfalseを返す。
func (p Post) NaiveDateTime() (time.Time, bool) {
	if p.Time == nil {
		return time.Time{}, false
	}
	return time.Date(p.Date.Year, p.Date.Month, p.Date.Day,
		p.Time.Hour, p.Time.Minute, p.Time.Second, p.Time.Nanosecond, time.UTC), true
}

// Naive はtの壁時計表現（年月日時分秒）をそのままUTCに載せ替えた値を返す。
// NaiveDateTimeの戻り値と比較するために使う。
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// LatestPost は時刻付きの投稿のうち最も新しいものを返す。
// 対象が無い場合はfalseを返す。同時刻の投稿が複数ある場合は後ろのものを採用する。
func LatestPost(posts []Post) (Post, time.Time, bool) {
	var (
		latest   Post
		latestAt time.Time
		found    bool
	)
	for _, p := range posts {
		at, ok := p.NaiveDateTime()
		if !ok {
			continue
		}
		if !found || !at.Before(latestAt) {
			latest, latestAt, found = p, at, true
		}
	}
	return latest, latestAt, found
}

// Date はタイムゾーンを持たない暦日。
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf はtの暦日を返す。
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate は年月日からDateを生成する。存在しない日付の場合はfalseを返す。
func NewDate(year int, month time.Month, day int) (Date, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// AddDays はn日後の暦日を返す。
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON は "2006-01-02" 形式で出力する。
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON は "2006-01-02" 形式を読み込む。
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("日付の形式が不正です %q: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

// Clock はタイムゾーンを持たない一日の中の時刻。
type Clock struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// ClockOf はtの時刻部分を返す。
func ClockOf(t time.Time) Clock {
	return Clock{
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

// NewClock は時分秒からClockを生成する。範囲外の値の場合はfalseを返す。
func NewClock(hour, minute, second int) (Clock, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return Clock{}, false
	}
	return Clock{Hour: hour, Minute: minute, Second: second}, true
}

func (c Clock) String() string {
	t := time.Date(2000, 1, 1, c.Hour, c.Minute, c.Second, c.Nanosecond, time.UTC)
	return t.Format(clockLayout)
}

// MarshalJSON は "15:04:05" 形式（端数秒がある場合は小数部付き）で出力する。
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON は "15:04:05[.小数部]" 形式を読み込む。
func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("時刻の形式が不正です %q: %w", s, err)
	}
	*c = ClockOf(t)
	return nil
}

// SearchConfig は1件の検索設定。起動時に生成され、以降は読み取り専用で共有される。
type SearchConfig struct {
	Keywords []string `json:"keywords" mapstructure:"keywords"`
}

// Query はキーワードを半角スペースで連結した検索クエリを返す。
func (c SearchConfig) Query() string {
	return strings.Join(c.Keywords, " ")
}
