package timeexpr

import (
	"fmt"
	"time"
)

// ExprKind tags a matched time expression.
type ExprKind int

const (
	ExprUnspecified ExprKind = iota
	ExprAbsoluteDate
	ExprRelativeDate
	ExprAbsoluteTime
	ExprRelativeTime
)

func (k ExprKind) String() string {
	switch k {
	case ExprAbsoluteDate:
		return "absolute_date"
	case ExprRelativeDate:
		return "relative_date"
	case ExprAbsoluteTime:
		return "absolute_time"
	case ExprRelativeTime:
		return "relative_time"
	default:
		return "unspecified"
	}
}

// Slot is the part of the timestamp an expression fills.
type Slot int

const (
	SlotDate Slot = iota
	SlotTime
)

func (s Slot) String() string {
	if s == SlotTime {
		return "time"
	}
	return "date"
}

// Anchor says how a weekday in a relative date is placed.
type Anchor int

const (
	AnchorNone     Anchor = iota
	AnchorUpcoming        // bare or "this" weekday; today counts if still ahead
	AnchorStrict          // "next" weekday; never today
	AnchorInWeek          // weekday within a Monday-based week ("다음주 금요일")
)

// Expression is one matched span of tokens.
type Expression struct {
	Kind   ExprKind
	Slot   Slot
	Rule   string
	Start  int // token range [Start, End)
	End    int
	Winner bool // first expression for its slot

	// ExprAbsoluteDate. Year 0 means no year was said, Month 0 a day-only date.
	Year, Month, Day int

	// ExprRelativeDate
	Days, Weeks, Months, Years int
	Weekday                    time.Weekday
	Anchor                     Anchor

	// ExprAbsoluteTime
	Hour, Minute int
	Meridiem     Meridiem
	Explicit     bool // 24-hour value, no AM/PM interpretation
	Night        bool // hint came from a night period; 12 means midnight

	// ExprRelativeTime
	Offset time.Duration
}

func (e Expression) String() string {
	var body string
	switch e.Kind {
	case ExprAbsoluteDate:
		body = fmt.Sprintf("year=%d month=%d day=%d", e.Year, e.Month, e.Day)
	case ExprRelativeDate:
		body = fmt.Sprintf("days=%d weeks=%d months=%d years=%d", e.Days, e.Weeks, e.Months, e.Years)
		if e.Anchor != AnchorNone {
			body += fmt.Sprintf(" weekday=%s anchor=%d", e.Weekday, e.Anchor)
		}
	case ExprAbsoluteTime:
		body = fmt.Sprintf("hour=%d minute=%d meridiem=%s", e.Hour, e.Minute, e.Meridiem)
		if e.Explicit {
			body += " explicit"
		}
	case ExprRelativeTime:
		body = "offset=" + e.Offset.String()
	}
	mark := ""
	if !e.Winner {
		mark = " (shadowed)"
	}
	return fmt.Sprintf("%s[%d:%d] %s %s%s", e.Rule, e.Start, e.End, e.Kind, body, mark)
}

// hour24 converts the spoken hour to 0..23 using the meridiem hint or policy.
func (e Expression) hour24(p Policy) int {
	h := e.Hour
	if e.Explicit || h >= 13 {
		return h % 24
	}
	switch e.Meridiem {
	case PM:
		if h == 12 {
			if e.Night {
				return 0
			}
			return 12
		}
		return h + 12
	case AM:
		if h == 12 {
			return 0
		}
		return h
	}
	if h >= 1 && h <= p.PMUntil {
		return h + 12
	}
	return h % 24
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// validMonthDay accepts any day that exists in the month in some year.
func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= daysIn(2000, month)
}
