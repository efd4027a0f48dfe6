package timeexpr

import "time"

// Timestamp is a resolved calendar minute.
type Timestamp struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// FromTime truncates t to the minute in its own location.
func FromTime(t time.Time) Timestamp {
	return Timestamp{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}

// Time returns the instant in loc.
func (t Timestamp) Time(loc *time.Location) time.Time {
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, 0, 0, loc)
}

// Valid reports whether every field is in range, including the day against the month length.
func (t Timestamp) Valid() bool {
	if t.Year < 1 || t.Year > 9999 || t.Month < 1 || t.Month > 12 {
		return false
	}
	if t.Day < 1 || t.Day > daysIn(t.Year, t.Month) {
		return false
	}
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t Timestamp) String() string {
	return Format(t)
}
