package timeexpr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/remind/internal/errors"
)

// Locale selects the display label language.
type Locale string

const (
	LocaleKorean  Locale = "ko"
	LocaleEnglish Locale = "en"
)

// ValidLocale reports whether l has a display format.
func ValidLocale(l Locale) bool {
	return l == LocaleKorean || l == LocaleEnglish
}

// Format renders the exchange string year:month:day:hour:minute, unpadded.
func Format(t Timestamp) string {
	return fmt.Sprintf("%d:%d:%d:%d:%d", t.Year, t.Month, t.Day, t.Hour, t.Minute)
}

// Parse reads an exchange string. Anything other than five unsigned integers
// forming a valid calendar minute is MALFORMED_TIMESTAMP.
func Parse(s string) (Timestamp, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 5 {
		return Timestamp{}, errors.NewMalformedTimestamp(s, fmt.Sprintf("expected 5 fields, got %d", len(fields)))
	}

	var v [5]int
	for i, f := range fields {
		if f == "" || len(f) > 9 || strings.IndexFunc(f, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return Timestamp{}, errors.NewMalformedTimestamp(s, fmt.Sprintf("field %d is not an unsigned integer", i))
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Timestamp{}, errors.NewMalformedTimestamp(s, err.Error())
		}
		v[i] = n
	}

	t := Timestamp{Year: v[0], Month: v[1], Day: v[2], Hour: v[3], Minute: v[4]}
	if !t.Valid() {
		return Timestamp{}, errors.NewMalformedTimestamp(s, "out of range")
	}
	return t, nil
}

// Display renders the label shown next to a reminder. Hour and minute are
// zero padded; the stored exchange string is never touched.
func Display(t Timestamp, l Locale) string {
	if l == LocaleEnglish {
		return fmt.Sprintf("%02d:%02d (%s %d)", t.Hour, t.Minute, time.Month(t.Month).String()[:3], t.Day)
	}
	return fmt.Sprintf("%02d:%02d(%d월%d일)", t.Hour, t.Minute, t.Month, t.Day)
}

// DisplayString parses s and renders it with Display.
func DisplayString(s string, l Locale) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Display(t, l), nil
}
