package ops

import (
	"context"
	"time"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/reminder"
	"github.com/hpungsan/remind/internal/timeexpr"
)

// ParseInput contains parameters for the Parse operation.
type ParseInput struct {
	Text    string    // required
	Now     time.Time // optional, default time.Now()
	Explain bool      // include tokens and matched expressions
}

// ParseOutput contains the result of the Parse operation.
type ParseOutput struct {
	Transcript  string             `json:"transcript"`
	AlarmTime   string             `json:"alarm_time"`
	Time        timeexpr.Timestamp `json:"time"`
	Display     string             `json:"display"`
	Now         string             `json:"now"`
	Tokens      []string           `json:"tokens,omitempty"`
	Expressions []string           `json:"expressions,omitempty"`
}

// Parse resolves text against now without touching the store.
func Parse(ctx context.Context, cfg *config.Config, input ParseInput) (*ParseOutput, error) {
	if err := checkContext(ctx, "parse"); err != nil {
		return nil, err
	}
	cfg = orDefault(cfg)
	now := nowOr(input.Now)

	transcript := reminder.CleanTranscript(input.Text)
	if transcript == "" {
		return nil, errors.NewNoSpeech()
	}

	a := timeexpr.Explain(transcript)
	ts := a.Resolve(now, cfg.Policy())

	out := &ParseOutput{
		Transcript: transcript,
		AlarmTime:  timeexpr.Format(ts),
		Time:       ts,
		Display:    timeexpr.Display(ts, cfg.DisplayLocale()),
		Now:        timeexpr.Format(timeexpr.FromTime(now)),
	}
	if input.Explain {
		for _, t := range a.Tokens {
			out.Tokens = append(out.Tokens, t.String())
		}
		for _, e := range a.Expressions {
			out.Expressions = append(out.Expressions, e.String())
		}
	}
	return out, nil
}
