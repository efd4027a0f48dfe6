package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/reminder"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	Index int // zero-based position in insertion order
}

// Fetch returns the reminder at a list position.
// Returns INVALID_REQUEST when the index is outside [0, count).
func Fetch(ctx context.Context, database *sql.DB, cfg *config.Config, input FetchInput) (*reminder.Item, error) {
	if err := checkContext(ctx, "fetch"); err != nil {
		return nil, err
	}
	cfg = orDefault(cfg)

	rec, err := db.GetResolvedAt(database, input.Index)
	if err != nil {
		return nil, err
	}
	return reminder.ToItem(rec, input.Index, cfg.DisplayLocale())
}
