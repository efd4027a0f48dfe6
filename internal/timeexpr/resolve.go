package timeexpr

import (
	"strings"
	"time"

	"github.com/hpungsan/remind/internal/errors"
)

// Policy holds the tunable defaults applied when an utterance leaves a slot open.
type Policy struct {
	// PMUntil is the last hour (1..11) read as PM when no AM/PM hint is given.
	// Hours from 1 through PMUntil become PM; higher hours stay AM. 0 disables it.
	PMUntil int
	// DefaultHour is used when no time of day is mentioned. Negative means
	// now's hour and minute; 0..23 means that hour at minute 0.
	DefaultHour int
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{PMUntil: 7, DefaultHour: -1}
}

// Analysis is the result of matching the rule cascade against a token sequence.
type Analysis struct {
	Tokens      []Token
	Expressions []Expression

	// Date and Time are the winning expressions per slot, nil when unspecified.
	Date *Expression
	Time *Expression
}

// Explain normalizes the transcript and reports every matched expression.
func Explain(transcript string) Analysis {
	return analyze(Normalize(transcript))
}

func analyze(toks []Token) Analysis {
	a := Analysis{Tokens: toks, Expressions: extract(toks)}
	for i := range a.Expressions {
		e := &a.Expressions[i]
		if !e.Winner {
			continue
		}
		if e.Slot == SlotDate {
			a.Date = e
		} else {
			a.Time = e
		}
	}
	return a
}

// Resolve maps tokens to a timestamp at or after now. It never fails: every
// slot the tokens leave open is filled from the policy.
func Resolve(tokens []Token, now time.Time, p Policy) Timestamp {
	return analyze(tokens).Resolve(now, p)
}

// Analyze resolves a raw transcript. An empty transcript is reported as
// NO_SPEECH rather than resolved to a default time.
func Analyze(transcript string, now time.Time, p Policy) (Timestamp, error) {
	if strings.TrimSpace(transcript) == "" {
		return Timestamp{}, errors.NewNoSpeech()
	}
	return Explain(transcript).Resolve(now, p), nil
}

// Resolve computes the timestamp for the analysis relative to now. A result
// outside the representable years falls back to the policy defaults.
func (a Analysis) Resolve(now time.Time, p Policy) Timestamp {
	if t := a.resolve(now, p); t.Valid() {
		return t
	}
	return Analysis{Tokens: a.Tokens}.resolve(now, p)
}

func (a Analysis) resolve(now time.Time, p Policy) Timestamp {
	loc := now.Location()
	now = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var hour, minute, carry int
	switch {
	case a.Time == nil:
		if p.DefaultHour < 0 {
			hour, minute = now.Hour(), now.Minute()
		} else {
			hour = p.DefaultHour % 24
		}
	case a.Time.Kind == ExprRelativeTime:
		at := now.Add(a.Time.Offset)
		if a.Date == nil {
			return FromTime(at)
		}
		hour, minute = at.Hour(), at.Minute()
		carry = daysBetween(today, at)
	default:
		hour, minute = a.Time.hour24(p), a.Time.Minute
	}

	result, step := clockOn(today, hour, minute), 1
	if a.Date != nil {
		result, step = a.resolveDate(today, now, hour, minute)
	}
	if carry != 0 {
		result = result.AddDate(0, 0, carry)
	}
	for result.Before(now) {
		result = result.AddDate(0, 0, step)
	}
	return FromTime(result)
}

// resolveDate places the date slot at hour:minute and returns the number of
// days to step forward while the result is still in the past.
func (a Analysis) resolveDate(today, now time.Time, hour, minute int) (time.Time, int) {
	e := a.Date
	loc := today.Location()

	if e.Kind == ExprRelativeDate {
		d := addMonths(today, 12*e.Years+e.Months).AddDate(0, 0, e.Days)
		switch e.Anchor {
		case AnchorNone:
			d = d.AddDate(0, 0, 7*e.Weeks)
		case AnchorUpcoming, AnchorStrict:
			d = d.AddDate(0, 0, 7*e.Weeks)
			delta := (int(e.Weekday) - int(d.Weekday()) + 7) % 7
			if delta == 0 && e.Anchor == AnchorStrict {
				delta = 7
			}
			d = d.AddDate(0, 0, delta)
		case AnchorInWeek:
			monday := d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
			d = monday.AddDate(0, 0, 7*e.Weeks+(int(e.Weekday)+6)%7)
		}
		if e.Anchor != AnchorNone {
			return clockOn(d, hour, minute), 7
		}
		return clockOn(d, hour, minute), 1
	}

	// A shadowed relative month or year ("다음달 3일", "내년 3월 5일")
	// still moves the earliest acceptable date.
	floor := now
	for _, x := range a.Expressions {
		if x.Winner || x.Kind != ExprRelativeDate || x.Anchor != AnchorNone || x.Months+x.Years == 0 {
			continue
		}
		first := addMonths(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc), 12*x.Years+x.Months)
		if x.Months == 0 {
			first = time.Date(first.Year(), time.January, 1, 0, 0, 0, 0, loc)
		}
		if first.After(floor) {
			floor = first
		}
		break
	}

	on := func(y, mo int) (time.Time, bool) {
		if e.Day > daysIn(y, mo) {
			return time.Time{}, false
		}
		t := time.Date(y, time.Month(mo), e.Day, hour, minute, 0, 0, loc)
		return t, !t.Before(floor)
	}

	// A year in the past is ignored so the result stays prospective.
	if e.Year > 0 {
		if t, ok := on(e.Year, e.Month); ok {
			return t, 1
		}
	}

	if e.Month == 0 {
		y, mo := floor.Year(), int(floor.Month())
		for range 48 {
			if t, ok := on(y, mo); ok {
				return t, 1
			}
			if mo++; mo > 12 {
				y, mo = y+1, 1
			}
		}
	} else {
		for y := floor.Year(); y <= floor.Year()+8; y++ {
			if t, ok := on(y, e.Month); ok {
				return t, 1
			}
		}
	}
	return clockOn(today, hour, minute), 1
}

func clockOn(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// addMonths adds n calendar months, clamping the day to the target month's end.
func addMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := min(t.Day(), daysIn(first.Year(), int(first.Month())))
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysBetween counts calendar days from the start of day to the date of t.
func daysBetween(day, t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	s := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(s).Hours() / 24)
}
