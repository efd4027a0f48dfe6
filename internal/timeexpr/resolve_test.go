package timeexpr

import (
	"testing"
	"time"

	"github.com/hpungsan/remind/internal/errors"
)

// 2024-01-10 is a Wednesday.
var wednesday = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func ts(y, mo, d, h, mi int) Timestamp {
	return Timestamp{Year: y, Month: mo, Day: d, Hour: h, Minute: mi}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		input string
		now   time.Time
		want  Timestamp
	}{
		{"tomorrow afternoon", "내일 오후 3시에 회의", wednesday, ts(2024, 1, 11, 15, 0)},
		{"bare hour defaults to pm", "5시", wednesday, ts(2024, 1, 10, 17, 0)},
		{"bare hour already passed", "5시", time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC), ts(2024, 1, 11, 17, 0)},
		{"morning hour passed rolls to tomorrow", "8시", wednesday, ts(2024, 1, 11, 8, 0)},
		{"today in the past rolls forward", "오늘 8시", wednesday, ts(2024, 1, 11, 8, 0)},
		{"hour and minute", "오후 2시 30분", wednesday, ts(2024, 1, 10, 14, 30)},
		{"half past", "세시 반", wednesday, ts(2024, 1, 10, 15, 30)},
		{"explicit am", "오전 10시", wednesday, ts(2024, 1, 10, 10, 0)},
		{"evening", "저녁 7시", wednesday, ts(2024, 1, 10, 19, 0)},
		{"night twelve is midnight", "밤 12시", wednesday, ts(2024, 1, 11, 0, 0)},
		{"relative hours", "3시간 후", wednesday, ts(2024, 1, 10, 12, 0)},
		{"relative minutes", "30분 뒤", wednesday, ts(2024, 1, 10, 9, 30)},
		{"relative hour and a half", "한시간 반 후", wednesday, ts(2024, 1, 10, 10, 30)},
		{"relative crosses midnight", "in 16 hours", wednesday, ts(2024, 1, 11, 1, 0)},
		{"relative days", "3일 후 오후 2시", wednesday, ts(2024, 1, 13, 14, 0)},
		{"relative days and hours", "3일 2시간 후", wednesday, ts(2024, 1, 13, 11, 0)},
		{"relative weeks", "2주 뒤", wednesday, ts(2024, 1, 24, 9, 0)},
		{"relative month", "한 달 후", wednesday, ts(2024, 2, 10, 9, 0)},
		{"relative month clamps", "한 달 후", time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC), ts(2024, 2, 29, 9, 0)},
		{"next year", "내년", wednesday, ts(2025, 1, 10, 9, 0)},
		{"in two hours", "in 2 hours", wednesday, ts(2024, 1, 10, 11, 0)},
		{"in half an hour", "in half an hour", wednesday, ts(2024, 1, 10, 9, 30)},
		{"an hour from now", "an hour from now", wednesday, ts(2024, 1, 10, 10, 0)},
		{"tomorrow at 7pm", "tomorrow at 7pm", wednesday, ts(2024, 1, 11, 19, 0)},
		{"pm with space", "5 pm", wednesday, ts(2024, 1, 10, 17, 0)},
		{"clock without hint", "3:30", wednesday, ts(2024, 1, 10, 15, 30)},
		{"clock with leading zero", "08:30", wednesday, ts(2024, 1, 11, 8, 30)},
		{"24 hour clock", "14:05", wednesday, ts(2024, 1, 10, 14, 5)},
		{"next friday", "next friday at 5", wednesday, ts(2024, 1, 12, 17, 0)},
		{"next same weekday skips today", "next wednesday", wednesday, ts(2024, 1, 17, 9, 0)},
		{"bare weekday today still ahead", "wednesday 10am", wednesday, ts(2024, 1, 10, 10, 0)},
		{"bare weekday today passed", "wednesday 8am", wednesday, ts(2024, 1, 17, 8, 0)},
		{"next week weekday", "다음주 금요일 오후 2시", wednesday, ts(2024, 1, 19, 14, 0)},
		{"weekday next week", "monday next week", wednesday, ts(2024, 1, 15, 9, 0)},
		{"this week weekday", "이번주 금요일", wednesday, ts(2024, 1, 12, 9, 0)},
		{"next week", "다음주", wednesday, ts(2024, 1, 17, 9, 0)},
		{"korean month day", "3월 5일 오전 10시", wednesday, ts(2024, 3, 5, 10, 0)},
		{"past month day goes to next year", "1월 5일", wednesday, ts(2025, 1, 5, 9, 0)},
		{"day only this month", "15일", wednesday, ts(2024, 1, 15, 9, 0)},
		{"day only next month", "5일", wednesday, ts(2024, 2, 5, 9, 0)},
		{"day only skips short month", "31일", time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC), ts(2024, 3, 31, 9, 0)},
		{"next month day", "다음달 3일", wednesday, ts(2024, 2, 3, 9, 0)},
		{"day only with time", "15일 오후 3시", wednesday, ts(2024, 1, 15, 15, 0)},
		{"day only today still ahead", "10일 오후 2시", wednesday, ts(2024, 1, 10, 14, 0)},
		{"past date and time today goes to next year", "1월 10일 8시", wednesday, ts(2025, 1, 10, 8, 0)},
		{"next year month day", "내년 3월 5일", wednesday, ts(2025, 3, 5, 9, 0)},
		{"leap day searches forward", "2월 29일 정오", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), ts(2028, 2, 29, 12, 0)},
		{"past explicit year ignored", "2023년 3월 5일", wednesday, ts(2024, 3, 5, 9, 0)},
		{"english month day", "December 25th at 9am", wednesday, ts(2024, 12, 25, 9, 0)},
		{"english day month", "5th of March", wednesday, ts(2024, 3, 5, 9, 0)},
		{"english ordinal day", "on the 20th", wednesday, ts(2024, 1, 20, 9, 0)},
		{"iso date and clock", "2024-03-05 14:30", wednesday, ts(2024, 3, 5, 14, 30)},
		{"slash date", "3/5 at 10am", wednesday, ts(2024, 3, 5, 10, 0)},
		{"noon", "정오", wednesday, ts(2024, 1, 10, 12, 0)},
		{"midnight", "midnight", wednesday, ts(2024, 1, 11, 0, 0)},
		{"period default", "tomorrow morning", wednesday, ts(2024, 1, 11, 9, 0)},
		{"tonight", "tonight", wednesday, ts(2024, 1, 10, 21, 0)},
		{"no time words", "회의 준비", wednesday, ts(2024, 1, 10, 9, 0)},
		{"truncates seconds", "회의", time.Date(2024, 1, 10, 9, 0, 42, 0, time.UTC), ts(2024, 1, 10, 9, 0)},
		{"tomorrow across year end", "내일", time.Date(2024, 12, 31, 22, 15, 0, 0, time.UTC), ts(2025, 1, 1, 22, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Analyze(tt.input, tt.now, DefaultPolicy())
			if err != nil {
				t.Fatalf("Analyze(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Analyze(%q) = %s, want %s\n%v", tt.input, got, tt.want, Explain(tt.input).Expressions)
			}
		})
	}
}

func TestAnalyze_OversizedOffsetsFallBack(t *testing.T) {
	for _, in := range []string{
		"in 9999999 days",
		"9999999일 후",
		"in 99999999999 hours",
		"10000년 후",
		"in 3000000 weeks",
	} {
		got, err := Analyze(in, wednesday, DefaultPolicy())
		if err != nil {
			t.Fatalf("Analyze(%q) error = %v", in, err)
		}
		if !got.Valid() || got != ts(2024, 1, 10, 9, 0) {
			t.Errorf("Analyze(%q) = %s, want now", in, got)
		}
	}
}

func TestResolve_InvalidResultFallsBack(t *testing.T) {
	late := time.Date(9990, 6, 1, 9, 0, 0, 0, time.UTC)
	got, _ := Analyze("50년 후", late, DefaultPolicy())
	if !got.Valid() || got != ts(9990, 6, 1, 9, 0) {
		t.Errorf("Analyze(50년 후) near year 9999 = %s, want now", got)
	}
	if back, err := Parse(Format(got)); err != nil || back != got {
		t.Errorf("Parse(Format(%s)) = %s, %v", got, back, err)
	}
}

func TestAnalyze_EmptyTranscript(t *testing.T) {
	for _, in := range []string{"", "  ", "\n\t"} {
		_, err := Analyze(in, wednesday, DefaultPolicy())
		if !errors.Is(err, errors.ErrNoSpeech) {
			t.Errorf("Analyze(%q) error = %v, want NO_SPEECH", in, err)
		}
	}
}

func TestResolve_EmptyTokensUseDefaults(t *testing.T) {
	got := Resolve(nil, wednesday, DefaultPolicy())
	if got != ts(2024, 1, 10, 9, 0) {
		t.Errorf("Resolve(nil) = %s, want now", got)
	}

	got = Resolve(nil, wednesday, Policy{PMUntil: 7, DefaultHour: 8})
	if got != ts(2024, 1, 11, 8, 0) {
		t.Errorf("Resolve(nil) with default hour 8 = %s, want tomorrow 08:00", got)
	}
}

func TestResolve_Policy(t *testing.T) {
	p := Policy{PMUntil: 4, DefaultHour: -1}
	got, _ := Analyze("5시", wednesday, p)
	if got != ts(2024, 1, 11, 5, 0) {
		t.Errorf("PMUntil=4: 5시 = %s, want 2024:1:11:5:0", got)
	}
	got, _ = Analyze("4시", wednesday, p)
	if got != ts(2024, 1, 10, 16, 0) {
		t.Errorf("PMUntil=4: 4시 = %s, want 2024:1:10:16:0", got)
	}

	p = Policy{PMUntil: 0, DefaultHour: 9}
	got, _ = Analyze("내일", time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC), p)
	if got != ts(2024, 1, 11, 9, 0) {
		t.Errorf("DefaultHour=9: 내일 = %s, want 2024:1:11:9:0", got)
	}
	got, _ = Analyze("3시", wednesday, p)
	if got != ts(2024, 1, 11, 3, 0) {
		t.Errorf("PMUntil=0: 3시 = %s, want 2024:1:11:3:0", got)
	}
}

func TestResolve_AbsoluteBeatsRelative(t *testing.T) {
	a := Explain("내일 3월 5일")
	if a.Date == nil || a.Date.Kind != ExprAbsoluteDate {
		t.Fatalf("date winner = %v, want absolute_date", a.Date)
	}
	var shadowed int
	for _, e := range a.Expressions {
		if !e.Winner {
			shadowed++
			if e.Kind != ExprRelativeDate {
				t.Errorf("shadowed kind = %s, want relative_date", e.Kind)
			}
		}
	}
	if shadowed != 1 {
		t.Errorf("shadowed = %d, want 1", shadowed)
	}
	if got := a.Resolve(wednesday, DefaultPolicy()); got != ts(2024, 3, 5, 9, 0) {
		t.Errorf("Resolve = %s, want 2024:3:5:9:0", got)
	}

	a = Explain("오후 3시 2시간 후")
	if a.Time == nil || a.Time.Kind != ExprAbsoluteTime {
		t.Fatalf("time winner = %v, want absolute_time", a.Time)
	}
}

func TestResolve_ExplicitDateTimeIgnoresNow(t *testing.T) {
	want := ts(2030, 6, 1, 15, 0)
	nows := []time.Time{
		wednesday,
		time.Date(2029, 12, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2030, 6, 1, 14, 59, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
	}
	for _, now := range nows {
		got, _ := Analyze("2030년 6월 1일 오후 3시", now, DefaultPolicy())
		if got != want {
			t.Errorf("now=%s: got %s, want %s", now, got, want)
		}
	}
}

func TestResolve_TomorrowRollsCalendar(t *testing.T) {
	nows := []time.Time{
		time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC),
		time.Date(2023, 2, 28, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC),
	}
	for _, now := range nows {
		got := Resolve(Normalize("tomorrow"), now, DefaultPolicy())
		want := FromTime(now.AddDate(0, 0, 1))
		if got != want {
			t.Errorf("now=%s: tomorrow = %s, want %s", now, got, want)
		}
	}
}

func TestResolve_NeverBeforeNow(t *testing.T) {
	inputs := []string{
		"오늘 8시", "5시", "1월 5일", "1일", "월요일", "정오", "자정", "3:30", "08:00",
		"this monday", "이번주 월요일", "2020-01-01", "tonight", "7 a.m.", "회의",
	}
	nows := []time.Time{
		wednesday,
		time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 18, 30, 0, 0, time.UTC),
	}
	for _, now := range nows {
		for _, in := range inputs {
			got, _ := Analyze(in, now, DefaultPolicy())
			if !got.Valid() {
				t.Errorf("now=%s %q: invalid %s", now, in, got)
			}
			if got.Time(time.UTC).Before(now.Truncate(time.Minute)) {
				t.Errorf("now=%s %q: %s is before now", now, in, got)
			}
		}
	}
}

func TestResolve_KeepsLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	now := time.Date(2024, 1, 10, 23, 30, 0, 0, seoul)
	got, _ := Analyze("1시간 후", now, DefaultPolicy())
	if got != ts(2024, 1, 11, 0, 30) {
		t.Errorf("got %s, want 2024:1:11:0:30", got)
	}
}

func TestExpression_Hour24(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		e    Expression
		want int
	}{
		{Expression{Hour: 5}, 17},
		{Expression{Hour: 7}, 19},
		{Expression{Hour: 8}, 8},
		{Expression{Hour: 11}, 11},
		{Expression{Hour: 12}, 12},
		{Expression{Hour: 0}, 0},
		{Expression{Hour: 24}, 0},
		{Expression{Hour: 15}, 15},
		{Expression{Hour: 12, Meridiem: AM}, 0},
		{Expression{Hour: 12, Meridiem: PM}, 12},
		{Expression{Hour: 12, Meridiem: PM, Night: true}, 0},
		{Expression{Hour: 3, Meridiem: AM}, 3},
		{Expression{Hour: 9, Meridiem: PM}, 21},
		{Expression{Hour: 5, Explicit: true}, 5},
	}
	for _, tt := range tests {
		if got := tt.e.hour24(p); got != tt.want {
			t.Errorf("hour24(%+v) = %d, want %d", tt.e, got, tt.want)
		}
	}
}

func TestAddMonths_Clamps(t *testing.T) {
	jan31 := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := addMonths(jan31, 1); got.Month() != time.February || got.Day() != 28 {
		t.Errorf("Jan 31 + 1 month = %s, want Feb 28", got)
	}
	if got := addMonths(jan31, 13); got.Year() != 2024 || got.Month() != time.February || got.Day() != 29 {
		t.Errorf("Jan 31 2023 + 13 months = %s, want Feb 29 2024", got)
	}
	if got := addMonths(jan31, -2); got.Year() != 2022 || got.Month() != time.November || got.Day() != 30 {
		t.Errorf("Jan 31 - 2 months = %s, want Nov 30 2022", got)
	}
}
