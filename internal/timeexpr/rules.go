package timeexpr

import (
	"slices"
	"time"
)

type rule struct {
	name  string
	slot  Slot
	match func(m *matcher, i int) (Expression, int, bool)
}

// rules in priority order. Within a slot the earlier rule wins.
var rules = []rule{
	{name: "absolute_date", slot: SlotDate, match: matchAbsoluteDate},
	{name: "relative_date", slot: SlotDate, match: matchRelativeDate},
	{name: "absolute_time", slot: SlotTime, match: matchAbsoluteTime},
	{name: "relative_time", slot: SlotTime, match: matchRelativeTime},
	{name: "period_default", slot: SlotTime, match: matchPeriod},
}

// extract runs each rule once over the tokens not consumed by earlier rules.
func extract(toks []Token) []Expression {
	m := &matcher{toks: toks, used: make([]bool, len(toks))}
	filled := make(map[Slot]bool)
	var out []Expression

	for _, r := range rules {
		for i := range toks {
			if m.used[i] {
				continue
			}
			e, n, ok := r.match(m, i)
			if !ok {
				continue
			}
			e.Rule = r.name
			e.Slot = r.slot
			e.Start, e.End = i, i+n
			e.Winner = !filled[r.slot]
			filled[r.slot] = true
			for j := i; j < i+n; j++ {
				m.used[j] = true
			}
			out = append(out, e)
			break
		}
	}
	return out
}

type matcher struct {
	toks []Token
	used []bool
}

func (m *matcher) tok(i int) (Token, bool) {
	if i < 0 || i >= len(m.toks) || m.used[i] {
		return Token{}, false
	}
	return m.toks[i], true
}

func (m *matcher) kind(i int, k TokenKind) bool {
	t, ok := m.tok(i)
	return ok && t.Kind == k
}

func (m *matcher) unit(i int, units ...Unit) bool {
	t, ok := m.tok(i)
	return ok && t.Kind == TokUnit && slices.Contains(units, t.Unit)
}

func (m *matcher) number(i int) (int, bool) {
	t, ok := m.tok(i)
	if !ok || t.Kind != TokNumber {
		return 0, false
	}
	return t.Value, true
}

// laterFollows reports whether a run of numbers and units starting at i ends in 후/later.
func (m *matcher) laterFollows(i int) bool {
	for j := i; j < len(m.toks); j++ {
		switch m.toks[j].Kind {
		case TokLater:
			return true
		case TokNumber, TokUnit, TokHalf:
		default:
			return false
		}
	}
	return false
}

// timeFollows reports whether token i turns the preceding number into a time of day.
func (m *matcher) timeFollows(i int) bool {
	return m.kind(i, TokMeridiem) || m.unit(i, UnitOClock, UnitHour, UnitMinute)
}

func (m *matcher) yearAt(i int) (int, int) {
	y, ok := m.number(i)
	if !ok {
		return 0, 0
	}
	if m.unit(i+1, UnitYear) {
		return expandYear(y), 2
	}
	if y >= 1000 {
		return y, 1
	}
	return 0, 0
}

func expandYear(y int) int {
	if y < 100 {
		return 2000 + y
	}
	return y
}

// dateExpr builds an absolute date. Month 0 is a day-only date; the resolver
// finds the next month that has the day.
func dateExpr(year, month, day, n int) (Expression, int, bool) {
	if month == 0 {
		if day < 1 || day > 31 {
			return Expression{}, 0, false
		}
	} else if !validMonthDay(month, day) {
		return Expression{}, 0, false
	}
	return Expression{Kind: ExprAbsoluteDate, Year: year, Month: month, Day: day}, n, true
}

func matchAbsoluteDate(m *matcher, i int) (Expression, int, bool) {
	t, _ := m.tok(i)
	switch t.Kind {
	case TokNumericDate:
		return dateExpr(t.Year, t.Month, t.Day, 1)

	case TokMonthName:
		// "may" alone is too often a verb; require a day
		d, ok := m.number(i + 1)
		if !ok || m.timeFollows(i+2) {
			return Expression{}, 0, false
		}
		y, yn := m.yearAt(i + 2)
		return dateExpr(y, t.Value, d, 2+yn)

	case TokNumber:
		// [N년] N월 [N일]
		j, year := i, 0
		if m.unit(i+1, UnitYear) {
			if _, ok := m.number(i + 2); !ok || !m.unit(i+3, UnitMonthOfYear) {
				return Expression{}, 0, false
			}
			j, year = i+2, expandYear(t.Value)
		}
		if mo, ok := m.number(j); ok && m.unit(j+1, UnitMonthOfYear) {
			if d, ok := m.number(j + 2); ok && m.unit(j+3, UnitDayOfMonth) && !m.laterFollows(j+2) {
				return dateExpr(year, mo, d, j+4-i)
			}
			return dateExpr(year, mo, 1, j+2-i)
		}

		// N[th] MonthName [YYYY]
		if mt, ok := m.tok(i + 1); ok && mt.Kind == TokMonthName {
			y, yn := m.yearAt(i + 2)
			return dateExpr(y, mt.Value, t.Value, 2+yn)
		}

		// N일, not "N일 후" and not "in N days"
		if m.unit(i+1, UnitDayOfMonth) && !m.laterFollows(i) && !m.kind(i-1, TokIn) {
			return dateExpr(0, 0, t.Value, 2)
		}

		// the 5th
		if t.Ordinal && t.Value >= 1 && t.Value <= 31 && !m.kind(i+1, TokUnit) && !m.kind(i+1, TokMeridiem) {
			return Expression{Kind: ExprAbsoluteDate, Day: t.Value}, 1, true
		}
	}
	return Expression{}, 0, false
}

// maxOffsetDays bounds relative offsets. A longer offset is not matched, so
// its slot falls back to the default.
const maxOffsetDays = 100 * 366

func offsetDate(n int, u Unit) (Expression, bool) {
	e := Expression{Kind: ExprRelativeDate}
	days := n
	switch u {
	case UnitDay, UnitDayOfMonth:
		e.Days = n
	case UnitWeek:
		e.Weeks, days = n, 7*n
	case UnitMonth:
		e.Months, days = n, 31*n
	case UnitYear:
		e.Years, days = n, 366*n
	default:
		return Expression{}, false
	}
	if n < 0 || n > maxOffsetDays || days > maxOffsetDays {
		return Expression{}, false
	}
	return e, true
}

func (m *matcher) weekdayAt(i int) (time.Weekday, bool) {
	t, ok := m.tok(i)
	if !ok || t.Kind != TokWeekday {
		return 0, false
	}
	return time.Weekday(t.Value), true
}

func matchRelativeDate(m *matcher, i int) (Expression, int, bool) {
	t, _ := m.tok(i)
	rel := Expression{Kind: ExprRelativeDate}

	switch t.Kind {
	case TokDayWord:
		rel.Days = t.Value
		return rel, 1, true

	case TokNext:
		k := 1
		for m.kind(i+k, TokNext) {
			k++
		}
		j := i + k
		switch {
		case m.unit(j, UnitWeek):
			rel.Weeks = k
			if wd, ok := m.weekdayAt(j + 1); ok {
				rel.Weekday, rel.Anchor = wd, AnchorInWeek
				return rel, k + 2, true
			}
			return rel, k + 1, true
		case m.unit(j, UnitMonth, UnitMonthOfYear):
			rel.Months = k
			return rel, k + 1, true
		case m.unit(j, UnitYear):
			rel.Years = k
			return rel, k + 1, true
		}
		if wd, ok := m.weekdayAt(j); ok {
			rel.Weeks = k - 1
			rel.Weekday, rel.Anchor = wd, AnchorStrict
			return rel, k + 1, true
		}

	case TokThis:
		if m.unit(i+1, UnitWeek) {
			if wd, ok := m.weekdayAt(i + 2); ok {
				rel.Weekday, rel.Anchor = wd, AnchorInWeek
				return rel, 3, true
			}
			return Expression{}, 0, false
		}
		if wd, ok := m.weekdayAt(i + 1); ok {
			rel.Weekday, rel.Anchor = wd, AnchorUpcoming
			return rel, 2, true
		}

	case TokWeekday:
		rel.Weekday = time.Weekday(t.Value)
		if m.kind(i+1, TokNext) && m.unit(i+2, UnitWeek) {
			rel.Weeks, rel.Anchor = 1, AnchorInWeek
			return rel, 3, true
		}
		rel.Anchor = AnchorUpcoming
		return rel, 1, true

	case TokIn:
		if n, ok := m.number(i + 1); ok {
			if u, ok := m.tok(i + 2); ok && u.Kind == TokUnit {
				if e, ok := offsetDate(n, u.Unit); ok {
					return e, 3, true
				}
			}
		}

	case TokNumber:
		if u, ok := m.tok(i + 1); ok && u.Kind == TokUnit && m.laterFollows(i) {
			if e, ok := offsetDate(t.Value, u.Unit); ok {
				if m.kind(i+2, TokLater) {
					return e, 3, true
				}
				return e, 2, true
			}
		}
	}
	return Expression{}, 0, false
}

func timeExpr(hour, minute int) (Expression, bool) {
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 {
		return Expression{}, false
	}
	return Expression{Kind: ExprAbsoluteTime, Hour: hour, Minute: minute}, true
}

// meridiem takes an am/pm token right after the match, or else borrows the
// nearest period word before the match, or after it.
func (m *matcher) meridiem(e *Expression, i, n int) int {
	if t, ok := m.tok(i + n); ok && t.Kind == TokMeridiem {
		e.Meridiem = t.Meridiem
		return n + 1
	}
	hint := func(t Token) bool {
		if t.Kind != TokMeridiem && t.Kind != TokPeriod {
			return false
		}
		e.Meridiem = t.Meridiem
		e.Night = t.Kind == TokPeriod && t.Value >= 21
		return true
	}
	for j := i - 1; j >= 0; j-- {
		if hint(m.toks[j]) {
			return n
		}
	}
	for j := i + n; j < len(m.toks); j++ {
		if hint(m.toks[j]) {
			return n
		}
	}
	return n
}

func matchAbsoluteTime(m *matcher, i int) (Expression, int, bool) {
	t, _ := m.tok(i)
	switch t.Kind {
	case TokClock:
		e, ok := timeExpr(t.Hour, t.Minute)
		if !ok {
			return e, 0, false
		}
		if t.Hour == 0 || t.Hour >= 13 || t.Text[0] == '0' {
			e.Explicit = true
			return e, 1, true
		}
		return e, m.meridiem(&e, i, 1), true

	case TokNoon:
		return Expression{Kind: ExprAbsoluteTime, Hour: 12, Explicit: true}, 1, true

	case TokMidnight:
		return Expression{Kind: ExprAbsoluteTime, Hour: 0, Explicit: true}, 1, true

	case TokAt:
		if e, n, ok := matchAbsoluteTime(m, i+1); ok {
			return e, n + 1, true
		}
		h, ok := m.number(i + 1)
		if !ok {
			return Expression{}, 0, false
		}
		n, minute := 2, 0
		if mm, ok := m.number(i + 2); ok && mm < 60 {
			minute, n = mm, 3
		}
		e, ok := timeExpr(h, minute)
		if !ok {
			return e, 0, false
		}
		return e, m.meridiem(&e, i, n), true

	case TokNumber:
		if m.unit(i+1, UnitOClock) {
			e, ok := timeExpr(t.Value, 0)
			if !ok {
				return e, 0, false
			}
			n := 2
			if mm, ok := m.number(i + 2); ok && m.unit(i+3, UnitMinute) && !m.laterFollows(i+2) {
				if mm > 59 {
					return Expression{}, 0, false
				}
				e.Minute, n = mm, 4
			} else if m.kind(i+2, TokHalf) {
				e.Minute, n = 30, 3
			}
			return e, m.meridiem(&e, i, n), true
		}
		if m.kind(i+1, TokMeridiem) && t.Value <= 12 {
			e, _ := timeExpr(t.Value, 0)
			return e, m.meridiem(&e, i, 1), true
		}
		if mm, ok := m.number(i + 1); ok && mm < 60 && m.kind(i+2, TokMeridiem) && t.Value <= 12 {
			e, _ := timeExpr(t.Value, mm)
			return e, m.meridiem(&e, i, 2), true
		}
	}
	return Expression{}, 0, false
}

// duration reads "N hours [M minutes | half]" or "N minutes" starting at i.
func (m *matcher) duration(i int) (time.Duration, int, bool) {
	if m.kind(i, TokHalf) && m.unit(i+1, UnitHour) {
		return 30 * time.Minute, 2, true
	}
	n, ok := m.number(i)
	if !ok || n < 0 || n > maxOffsetDays*24*60 {
		return 0, 0, false
	}
	switch {
	case m.unit(i+1, UnitHour) && n <= maxOffsetDays*24:
		d := time.Duration(n) * time.Hour
		if mm, ok := m.number(i + 2); ok && mm <= 59 && m.unit(i+3, UnitMinute) {
			return d + time.Duration(mm)*time.Minute, 4, true
		}
		if m.kind(i+2, TokHalf) {
			return d + 30*time.Minute, 3, true
		}
		return d, 2, true
	case m.unit(i+1, UnitMinute):
		return time.Duration(n) * time.Minute, 2, true
	}
	return 0, 0, false
}

func matchRelativeTime(m *matcher, i int) (Expression, int, bool) {
	t, _ := m.tok(i)
	switch t.Kind {
	case TokIn:
		if d, n, ok := m.duration(i + 1); ok {
			return Expression{Kind: ExprRelativeTime, Offset: d}, n + 1, true
		}
	case TokNumber:
		if d, n, ok := m.duration(i); ok && m.kind(i+n, TokLater) {
			return Expression{Kind: ExprRelativeTime, Offset: d}, n + 1, true
		}
	}
	return Expression{}, 0, false
}

func matchPeriod(m *matcher, i int) (Expression, int, bool) {
	t, _ := m.tok(i)
	if t.Kind != TokPeriod {
		return Expression{}, 0, false
	}
	return Expression{Kind: ExprAbsoluteTime, Hour: t.Value, Meridiem: t.Meridiem, Explicit: true}, 1, true
}
