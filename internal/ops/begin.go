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

// BeginInput contains parameters for the Begin operation.
type BeginInput struct {
	AudioFile string    // required, bare file name inside the audio directory
	Now       time.Time // optional, default time.Now()
}

// BeginOutput contains the result of the Begin operation.
type BeginOutput struct {
	ID        string `json:"id"`
	AudioFile string `json:"audio_file"`
	CreatedAt int64  `json:"created_at"`
}

// Begin inserts the pending row for a recording that just started.
func Begin(ctx context.Context, database *sql.DB, input BeginInput) (*BeginOutput, error) {
	if err := checkContext(ctx, "begin"); err != nil {
		return nil, err
	}
	if err := ValidateAudioName(input.AudioFile); err != nil {
		return nil, err
	}

	now := nowOr(input.Now)
	id, err := generateULID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	rec := &reminder.Record{
		ID:        id,
		AudioFile: input.AudioFile,
		Status:    reminder.StatusPending,
		CreatedAt: now.Unix(),
	}
	if err := db.Insert(database, rec); err != nil {
		return nil, err
	}

	return &BeginOutput{ID: id, AudioFile: rec.AudioFile, CreatedAt: rec.CreatedAt}, nil
}

// FinalizeInput contains parameters for the Finalize operation.
type FinalizeInput struct {
	ID         string    // required, a pending row from Begin
	Transcript string    // final transcript; empty discards the row
	Now        time.Time // optional, the resolver's reference time
}

// ResolvedOutput is returned by Finalize and Add.
type ResolvedOutput struct {
	ID         string             `json:"id"`
	AlarmTime  string             `json:"alarm_time"`
	Time       timeexpr.Timestamp `json:"time"`
	Display    string             `json:"display"`
	Transcript string             `json:"transcript"`
}

// Finalize resolves the transcript and completes the pending row exactly once.
// An empty transcript marks the row discarded and returns NO_SPEECH.
func Finalize(ctx context.Context, database *sql.DB, cfg *config.Config, input FinalizeInput) (*ResolvedOutput, error) {
	if err := checkContext(ctx, "finalize"); err != nil {
		return nil, err
	}
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	cfg = orDefault(cfg)
	now := nowOr(input.Now)
	transcript := reminder.CleanTranscript(input.Transcript)
	ts, err := timeexpr.Analyze(transcript, now, cfg.Policy())
	if err != nil {
		if errors.Is(err, errors.ErrNoSpeech) {
			if derr := db.Discard(database, input.ID, transcript, now.Unix()); derr != nil {
				return nil, derr
			}
		}
		return nil, err
	}

	alarm := timeexpr.Format(ts)
	if err := db.Finalize(database, input.ID, alarm, transcript, now.Unix()); err != nil {
		return nil, err
	}

	return &ResolvedOutput{
		ID:         input.ID,
		AlarmTime:  alarm,
		Time:       ts,
		Display:    timeexpr.Display(ts, cfg.DisplayLocale()),
		Transcript: transcript,
	}, nil
}
