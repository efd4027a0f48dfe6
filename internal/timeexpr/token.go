package timeexpr

import (
	"fmt"
	"time"
)

// TokenKind classifies a normalized token.
type TokenKind int

const (
	TokWord        TokenKind = iota // unrecognized content word; breaks adjacency
	TokNumber                       // Value
	TokClock                        // Hour, Minute ("3:30")
	TokNumericDate                  // Year (0 if absent), Month, Day ("5/3", "2024-05-03")
	TokUnit                         // Unit
	TokMonthName                    // Value = 1..12
	TokWeekday                      // Value = time.Weekday
	TokDayWord                      // Value = day offset from today
	TokNext                         // next / 다음
	TokThis                         // this / 이번
	TokIn                           // prefix offset marker: in / after
	TokLater                        // suffix offset marker: later / 후 / 뒤
	TokAt                           // at
	TokMeridiem                     // Meridiem (am / pm)
	TokPeriod                       // Meridiem hint + Value = default hour (morning, 오후 ...)
	TokNoon                         // noon / 정오
	TokMidnight                     // midnight / 자정
	TokHalf                         // half / 반
)

var tokenKindNames = map[TokenKind]string{
	TokWord:        "word",
	TokNumber:      "number",
	TokClock:       "clock",
	TokNumericDate: "numeric_date",
	TokUnit:        "unit",
	TokMonthName:   "month_name",
	TokWeekday:     "weekday",
	TokDayWord:     "day_word",
	TokNext:        "next",
	TokThis:        "this",
	TokIn:          "in",
	TokLater:       "later",
	TokAt:          "at",
	TokMeridiem:    "meridiem",
	TokPeriod:      "period",
	TokNoon:        "noon",
	TokMidnight:    "midnight",
	TokHalf:        "half",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Unit is the calendar or clock unit attached to a number.
type Unit int

const (
	UnitNone       Unit = iota
	UnitYear            // 년, year
	UnitMonth           // 달, 개월, month (a count of months)
	UnitMonthOfYear     // 월 ("3월" = March)
	UnitWeek            // 주, week
	UnitDay             // day (a count of days)
	UnitDayOfMonth      // 일 ("3일" = the 3rd, or 3 days before 후/뒤)
	UnitOClock          // 시, o'clock
	UnitHour            // 시간, hour
	UnitMinute          // 분, minute
)

var unitNames = [...]string{"none", "year", "month", "month_of_year", "week", "day", "day_of_month", "oclock", "hour", "minute"}

func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// Meridiem is an AM/PM hint.
type Meridiem int

const (
	MeridiemNone Meridiem = iota
	AM
	PM
)

func (m Meridiem) String() string {
	switch m {
	case AM:
		return "am"
	case PM:
		return "pm"
	default:
		return "none"
	}
}

// Token is one element of a normalized utterance.
type Token struct {
	Kind     TokenKind
	Text     string // source text the token came from
	Value    int
	Unit     Unit
	Meridiem Meridiem
	Ordinal  bool // "5th", "fifth"

	Hour, Minute     int // TokClock
	Year, Month, Day int // TokNumericDate

	// tentative marks a Hangul numeral that only counts when a unit follows.
	tentative bool
}

func (t Token) String() string {
	switch t.Kind {
	case TokNumber:
		return fmt.Sprintf("number(%d)", t.Value)
	case TokClock:
		return fmt.Sprintf("clock(%d:%02d)", t.Hour, t.Minute)
	case TokNumericDate:
		return fmt.Sprintf("date(%d-%d-%d)", t.Year, t.Month, t.Day)
	case TokUnit:
		return fmt.Sprintf("unit(%s)", t.Unit)
	case TokMonthName:
		return fmt.Sprintf("month(%d)", t.Value)
	case TokWeekday:
		return fmt.Sprintf("weekday(%s)", time.Weekday(t.Value))
	case TokDayWord:
		return fmt.Sprintf("day(+%d)", t.Value)
	case TokMeridiem:
		return fmt.Sprintf("meridiem(%s)", t.Meridiem)
	case TokPeriod:
		return fmt.Sprintf("period(%s,%d)", t.Meridiem, t.Value)
	default:
		return t.Kind.String()
	}
}
