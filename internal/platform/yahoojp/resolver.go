package yahoojp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/searchreport/internal/model"
)

// 検索結果ページの時刻表記。上から順に試行し、最初に一致したものを採用する。
var (
	secondsAgoPattern = regexp.MustCompile(`^(\d{1,2})秒前`)
	minutesAgoPattern = regexp.MustCompile(`^(\d{1,2})分前`)
	todayPattern      = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})`)
	yesterdayPattern  = regexp.MustCompile(`昨日(\d{1,2}):(\d{1,2})`)
	monthDayPattern   = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日\([月火水木金土日]\)(\d{1,2}):(\d{1,2})`)
	fullDatePattern   = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
)

// Resolver は時刻表記を暦日と時刻に変換する。
// 表記は source のタイムゾーンで書かれているものとして解釈し、
// target のタイムゾーンに変換してから日付と時刻に分ける。
// 年月日のみの表記は時刻を持たないため、タイムゾーン変換を行わない。
type Resolver struct {
	source *time.Location
	target *time.Location
}

// NewResolver はResolverの新しいインスタンスを生成する。
// nilを渡した場合、sourceはAsia/Tokyo相当の固定オフセット、targetはtime.Localになる。
func NewResolver(source, target *time.Location) *Resolver {
	if source == nil {
		source = time.FixedZone("JST", 9*60*60)
	}
	if target == nil {
		target = time.Local
	}
	return &Resolver{source: source, target: target}
}

// Resolve はtextをrefを基準に解釈する。
// 年月日のみの表記の場合、戻り値の時刻はnilになる。
func (r *Resolver) Resolve(text string, ref time.Time) (model.Date, *model.Clock, error) {
	trimmed := strings.Join(strings.Fields(text), "")
	ref = ref.In(r.source)

	if m := secondsAgoPattern.FindStringSubmatch(trimmed); m != nil {
		n, err := parseNumber(m[1])
		if err != nil {
			return model.Date{}, nil, err
		}
		return r.split(ref.Add(-time.Duration(n) * time.Second))
	}

	if m := minutesAgoPattern.FindStringSubmatch(trimmed); m != nil {
		n, err := parseNumber(m[1])
		if err != nil {
			return model.Date{}, nil, err
		}
		return r.split(ref.Add(-time.Duration(n) * time.Minute))
	}

	if m := todayPattern.FindStringSubmatch(trimmed); m != nil {
		clock, err := parseClock(m[1], m[2])
		if err != nil {
			return model.Date{}, nil, err
		}
		return r.split(r.at(model.DateOf(ref), clock))
	}

	if m := yesterdayPattern.FindStringSubmatch(trimmed); m != nil {
		clock, err := parseClock(m[1], m[2])
		if err != nil {
			return model.Date{}, nil, err
		}
		return r.split(r.at(model.DateOf(ref).AddDays(-1), clock))
	}

	if m := monthDayPattern.FindStringSubmatch(trimmed); m != nil {
		date, err := parseDate(strconv.Itoa(ref.Year()), m[1], m[2])
		if err != nil {
			return model.Date{}, nil, err
		}
		clock, err := parseClock(m[3], m[4])
		if err != nil {
			return model.Date{}, nil, err
		}
		return r.split(r.at(date, clock))
	}

	if m := fullDatePattern.FindStringSubmatch(trimmed); m != nil {
		date, err := parseDate(m[1], m[2], m[3])
		if err != nil {
			return model.Date{}, nil, err
		}
		return date, nil, nil
	}

	return model.Date{}, nil, model.NewParseDatetimeError(fmt.Sprintf("想定外の時刻表記です: %s", trimmed))
}

// at は source タイムゾーンでの暦日と時刻から時点を組み立てる。
func (r *Resolver) at(date model.Date, clock model.Clock) time.Time {
	return time.Date(date.Year, date.Month, date.Day,
		clock.Hour, clock.Minute, clock.Second, clock.Nanosecond, r.source)
}

// split は時点を target タイムゾーンの暦日と時刻に分ける。
func (r *Resolver) split(t time.Time) (model.Date, *model.Clock, error) {
	local := t.In(r.target)
	clock := model.ClockOf(local)
	return model.DateOf(local), &clock, nil
}

func parseNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, model.NewParseDatetimeError(err.Error())
	}
	return n, nil
}

func parseClock(hour, minute string) (model.Clock, error) {
	h, err := parseNumber(hour)
	if err != nil {
		return model.Clock{}, err
	}
	m, err := parseNumber(minute)
	if err != nil {
		return model.Clock{}, err
	}
	clock, ok := model.NewClock(h, m, 0)
	if !ok {
		return model.Clock{}, model.NewParseDatetimeError(fmt.Sprintf("不正な時刻です: %s:%s", hour, minute))
	}
	return clock, nil
}

func parseDate(year, month, day string) (model.Date, error) {
	y, err := parseNumber(year)
	if err != nil {
		return model.Date{}, err
	}
	m, err := parseNumber(month)
	if err != nil {
		return model.Date{}, err
	}
	d, err := parseNumber(day)
	if err != nil {
		return model.Date{}, err
	}
	date, ok := model.NewDate(y, time.Month(m), d)
	if !ok {
		return model.Date{}, model.NewParseDatetimeError(fmt.Sprintf("不正な日付です: %s年%s月%s日", year, month, day))
	}
	return date, nil
}
