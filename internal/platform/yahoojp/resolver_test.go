package yahoojp

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/hitoshi/searchreport/internal/model"
)

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("タイムゾーン %s の読み込みに失敗: %v", name, err)
	}
	return loc
}

func TestResolver_Resolve_PatternFamilies(t *testing.T) {
	tokyo := mustLoadLocation(t, "Asia/Tokyo")
	r := NewResolver(tokyo, tokyo)
	ref := time.Date(2023, time.November, 25, 12, 0, 0, 0, tokyo)

	tests := []struct {
		name      string
		text      string
		wantDate  model.Date
		wantClock *model.Clock
	}{
		{
			name:      "N秒前は基準時刻からN秒引く",
			text:      "25秒前",
			wantDate:  model.Date{Year: 2023, Month: time.November, Day: 25},
			wantClock: &model.Clock{Hour: 11, Minute: 59, Second: 35},
		},
		{
			name:      "N分前は基準時刻からN分引く",
			text:      "5分前",
			wantDate:  model.Date{Year: 2023, Month: time.November, Day: 25},
			wantClock: &model.Clock{Hour: 11, Minute: 55},
		},
		{
			name:      "H:MMは当日の時刻",
			text:      "0:17",
			wantDate:  model.Date{Year: 2023, Month: time.November, Day: 25},
			wantClock: &model.Clock{Hour: 0, Minute: 17},
		},
		{
			name:      "基準時刻より後の時刻でも当日として扱う",
			text:      "17:12",
			wantDate:  model.Date{Year: 2023, Month: time.November, Day: 25},
			wantClock: &model.Clock{Hour: 17, Minute: 12},
		},
		{
			name:      "昨日H:MMは前日の時刻",
			text:      "昨日17:12",
			wantDate:  model.Date{Year: 2023, Month: time.November, Day: 24},
			wantClock: &model.Clock{Hour: 17, Minute: 12},
		},
		{
			name:      "空白と改行は除去してから照合する",
			text:      "\n  昨日　 17:12\n",
			wantDate:  model.Date{Year: 2023, Month: time.November, Day: 24},
			wantClock: &model.Clock{Hour: 17, Minute: 12},
		},
		{
			name:      "M月D日(曜)H:MMは基準時刻の年",
			text:      "11月24日(金)3:00",
			wantDate:  model.Date{Year: 2023, Month: time.November, Day: 24},
			wantClock: &model.Clock{Hour: 3, Minute: 0},
		},
		{
			name:      "YYYY年M月D日は時刻なし",
			text:      "2023年11月26日",
			wantDate:  model.Date{Year: 2023, Month: time.November, Day: 26},
			wantClock: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, clock, err := r.Resolve(tt.text, ref)
			if err != nil {
				t.Fatalf("Resolve(%q) でエラー: %v", tt.text, err)
			}
			if date != tt.wantDate {
				t.Errorf("date = %v, want %v", date, tt.wantDate)
			}
			switch {
			case tt.wantClock == nil && clock != nil:
				t.Errorf("clock = %v, want nil", *clock)
			case tt.wantClock != nil && clock == nil:
				t.Errorf("clock = nil, want %v", *tt.wantClock)
			case tt.wantClock != nil && *clock != *tt.wantClock:
				t.Errorf("clock = %v, want %v", *clock, *tt.wantClock)
			}
		})
	}
}

func TestResolver_Resolve_ConvertsToTargetZone(t *testing.T) {
	tokyo := mustLoadLocation(t, "Asia/Tokyo")
	r := NewResolver(tokyo, time.UTC)
	ref := time.Date(2023, time.November, 25, 0, 30, 0, 0, tokyo)

	// 東京の 0:17 はUTCでは前日の 15:17
	date, clock, err := r.Resolve("0:17", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (model.Date{Year: 2023, Month: time.November, Day: 24}); date != want {
		t.Errorf("date = %v, want %v", date, want)
	}
	if clock == nil || *clock != (model.Clock{Hour: 15, Minute: 17}) {
		t.Errorf("clock = %v, want 15:17:00", clock)
	}

	// 年月日のみの表記はタイムゾーン変換しない
	date, clock, err = r.Resolve("2023年11月26日", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (model.Date{Year: 2023, Month: time.November, Day: 26}); date != want || clock != nil {
		t.Errorf("Resolve = (%v, %v), want (%v, nil)", date, clock, want)
	}
}

func TestResolver_Resolve_RelativeUsesSourceZoneOfReference(t *testing.T) {
	tokyo := mustLoadLocation(t, "Asia/Tokyo")
	r := NewResolver(tokyo, tokyo)

	// 基準時刻がUTCで渡されても東京の暦日で解釈する
	ref := time.Date(2023, time.November, 24, 15, 10, 0, 0, time.UTC) // 東京では 11/25 0:10
	date, clock, err := r.Resolve("昨日23:50", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (model.Date{Year: 2023, Month: time.November, Day: 24}); date != want {
		t.Errorf("date = %v, want %v", date, want)
	}
	if clock == nil || *clock != (model.Clock{Hour: 23, Minute: 50}) {
		t.Errorf("clock = %v, want 23:50:00", clock)
	}

	date, clock, err = r.Resolve("15分前", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (model.Date{Year: 2023, Month: time.November, Day: 24}); date != want {
		t.Errorf("date = %v, want %v", date, want)
	}
	if clock == nil || *clock != (model.Clock{Hour: 23, Minute: 55}) {
		t.Errorf("clock = %v, want 23:55:00", clock)
	}
}

func TestResolver_Resolve_Errors(t *testing.T) {
	tokyo := mustLoadLocation(t, "Asia/Tokyo")
	r := NewResolver(tokyo, tokyo)
	ref := time.Date(2023, time.November, 25, 12, 0, 0, 0, tokyo)

	inputs := []string{
		"93:00",
		"12:75",
		"昨日24:00",
		"2月30日(木)1:00",
		"2023年2月30日",
		"123秒前",
		"たった今",
		"",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, _, err := r.Resolve(in, ref)
			if err == nil {
				t.Fatalf("Resolve(%q) はエラーになるべき", in)
			}
			if !model.IsKind(err, model.ErrKindParseDatetime) {
				t.Errorf("Resolve(%q) のエラー種別 = %v, want %s", in, err, model.ErrKindParseDatetime)
			}
		})
	}
}
