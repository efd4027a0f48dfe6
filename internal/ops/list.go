package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/reminder"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Reverse bool // newest first
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items   []reminder.Item    `json:"items"`
	Skipped []reminder.Skipped `json:"skipped,omitempty"`
	Count   int                `json:"count"`
}

// List returns resolved reminders in insertion order. Rows whose stored alarm
// time cannot be parsed are reported in Skipped and never abort the listing.
// Item.Index is the position used by Fetch and playback, whatever the order.
func List(ctx context.Context, database *sql.DB, cfg *config.Config, input ListInput) (*ListOutput, error) {
	if err := checkContext(ctx, "list"); err != nil {
		return nil, err
	}
	cfg = orDefault(cfg)

	rows, err := db.ListResolved(ctx, database, input.Reverse)
	if err != nil {
		return nil, err
	}

	out := &ListOutput{Items: []reminder.Item{}, Count: len(rows)}
	for i := range rows {
		index := i
		if input.Reverse {
			index = len(rows) - 1 - i
		}
		item, err := reminder.ToItem(&rows[i], index, cfg.DisplayLocale())
		if err != nil {
			out.Skipped = append(out.Skipped, skippedRow(&rows[i], err))
			continue
		}
		out.Items = append(out.Items, *item)
	}
	return out, nil
}

// AlarmTimes returns the exchange string of every resolved reminder in
// insertion order, exactly as stored.
func AlarmTimes(ctx context.Context, database *sql.DB) ([]string, error) {
	rows, err := db.ListResolved(ctx, database, false)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.AlarmTime != nil {
			out = append(out, *r.AlarmTime)
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}
