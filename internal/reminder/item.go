package reminder

import "github.com/hpungsan/remind/internal/timeexpr"

// Item is a resolved reminder as presented by list, latest and fetch.
type Item struct {
	ID string `json:"id"`

	// Index is the zero-based position among resolved reminders in insertion order
	Index int `json:"index"`

	// AlarmTime is the stored exchange string
	AlarmTime string `json:"alarm_time"`

	// Time is AlarmTime parsed into its fields
	Time timeexpr.Timestamp `json:"time"`

	// Display is the locale label, e.g. 15:00(1월11일)
	Display string `json:"display"`

	Transcript string `json:"transcript"`
	AudioFile  string `json:"audio_file"`
	CreatedAt  int64  `json:"created_at"`
}

// Skipped describes a stored row whose alarm time could not be parsed.
type Skipped struct {
	ID        string `json:"id"`
	AlarmTime string `json:"alarm_time"`
	Reason    string `json:"reason"`
}

// ToItem parses r's alarm time and builds its list view.
// Returns a MALFORMED_TIMESTAMP error when the stored string is corrupt.
func ToItem(r *Record, index int, locale timeexpr.Locale) (*Item, error) {
	raw := ""
	if r.AlarmTime != nil {
		raw = *r.AlarmTime
	}
	ts, err := timeexpr.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &Item{
		ID:         r.ID,
		Index:      index,
		AlarmTime:  raw,
		Time:       ts,
		Display:    timeexpr.Display(ts, locale),
		Transcript: r.Transcript,
		AudioFile:  r.AudioFile,
		CreatedAt:  r.CreatedAt,
	}, nil
}
