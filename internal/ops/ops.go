package ops

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/errors"
)

// SchemaVersion is written into export headers.
const SchemaVersion = "1.0"

// generateULID generates a new ULID for a reminder row.
func generateULID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// nowOr returns t, or the current time when t is zero.
func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// checkContext maps a done context to CANCELLED.
func checkContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return errors.NewCancelled(op)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// orDefault returns cfg, or the default config when nil.
func orDefault(cfg *config.Config) *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}
