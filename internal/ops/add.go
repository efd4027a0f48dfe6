package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/reminder"
	"github.com/hpungsan/remind/internal/timeexpr"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	AudioFile  string    // optional, bare file name inside the audio directory
	Transcript string    // required
	Now        time.Time // optional, default time.Now()
}

// Add resolves a transcript and appends a resolved reminder in one step.
// Nothing is stored when the transcript is empty (NO_SPEECH).
func Add(ctx context.Context, database *sql.DB, cfg *config.Config, input AddInput) (*ResolvedOutput, error) {
	if err := checkContext(ctx, "add"); err != nil {
		return nil, err
	}
	if input.AudioFile != "" {
		if err := ValidateAudioName(input.AudioFile); err != nil {
			return nil, err
		}
	}

	cfg = orDefault(cfg)
	now := nowOr(input.Now)
	transcript := reminder.CleanTranscript(input.Transcript)
	ts, err := timeexpr.Analyze(transcript, now, cfg.Policy())
	if err != nil {
		return nil, err
	}

	id, err := generateULID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	alarm := timeexpr.Format(ts)
	at := now.Unix()
	rec := &reminder.Record{
		ID:         id,
		AudioFile:  input.AudioFile,
		AlarmTime:  &alarm,
		Transcript: transcript,
		Status:     reminder.StatusResolved,
		CreatedAt:  at,
		ResolvedAt: &at,
	}
	if err := db.Insert(database, rec); err != nil {
		return nil, err
	}

	return &ResolvedOutput{
		ID:         id,
		AlarmTime:  alarm,
		Time:       ts,
		Display:    timeexpr.Display(ts, cfg.DisplayLocale()),
		Transcript: transcript,
	}, nil
}
