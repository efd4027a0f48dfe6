package reminder

import (
	"regexp"
	"strings"
)

// Status is the lifecycle state of a stored reminder row.
type Status string

const (
	// StatusPending marks a row inserted at recording start, before its transcript resolved.
	StatusPending Status = "pending"
	// StatusResolved rows carry an alarm time and are immutable.
	StatusResolved Status = "resolved"
	// StatusDiscarded marks a recording that produced no speech.
	StatusDiscarded Status = "discarded"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusDiscarded:
		return true
	}
	return false
}

// Record is one row of the reminder log.
type Record struct {
	// ID is a ULID that uniquely identifies this reminder
	ID string

	// Seq is the insertion order assigned by the store
	Seq int64

	// AudioFile is the recording's file name, relative to the audio directory
	AudioFile string

	// AlarmTime is the exchange string (year:month:day:hour:minute); nil while pending
	AlarmTime *string

	// Transcript is the recognized text the alarm time was resolved from
	Transcript string

	Status Status

	// CreatedAt is the Unix timestamp of the insert
	CreatedAt int64

	// ResolvedAt is the Unix timestamp of finalization (nullable)
	ResolvedAt *int64
}

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanTranscript trims a transcript and collapses internal whitespace.
// Case is preserved; the resolver lowercases on its own.
func CleanTranscript(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}
