package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/reminder"
)

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Item    *reminder.Item     `json:"item"` // nil when there are no readable reminders
	Skipped []reminder.Skipped `json:"skipped,omitempty"`
}

// Latest returns the most recently added reminder, or a nil Item when the log
// is empty. Newer rows with an unparseable alarm time are reported in Skipped
// and the walk continues with the row before them.
func Latest(ctx context.Context, database *sql.DB, cfg *config.Config) (*LatestOutput, error) {
	if err := checkContext(ctx, "latest"); err != nil {
		return nil, err
	}
	cfg = orDefault(cfg)

	rec, err := db.GetLatestResolved(database)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &LatestOutput{}, nil
	}
	n, err := db.CountResolved(database)
	if err != nil {
		return nil, err
	}

	out := &LatestOutput{}
	for index := n - 1; index >= 0; index-- {
		if rec == nil {
			if err := checkContext(ctx, "latest"); err != nil {
				return nil, err
			}
			if rec, err = db.GetResolvedAt(database, index); err != nil {
				return nil, err
			}
		}
		item, err := reminder.ToItem(rec, index, cfg.DisplayLocale())
		if err == nil {
			out.Item = item
			break
		}
		out.Skipped = append(out.Skipped, skippedRow(rec, err))
		rec = nil
	}
	return out, nil
}

func skippedRow(rec *reminder.Record, err error) reminder.Skipped {
	raw := ""
	if rec.AlarmTime != nil {
		raw = *rec.AlarmTime
	}
	return reminder.Skipped{ID: rec.ID, AlarmTime: raw, Reason: err.Error()}
}
