package ops

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/remind/internal/clock"
	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/logger"
)

// Ledger is the process-wide handle on the reminder log. Writes go through a
// single mutex; reads run concurrently against the pool.
type Ledger struct {
	db    *sql.DB
	cfg   *config.Config
	clock clock.Clock
	log   *logrus.Logger

	mu sync.Mutex
}

// NewLedger wraps database. A nil clock means the wall clock, a nil logger discards.
func NewLedger(database *sql.DB, cfg *config.Config, clk clock.Clock, log *logrus.Logger) *Ledger {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Ledger{db: database, cfg: orDefault(cfg), clock: clk, log: log}
}

// DB returns the underlying database for read operations.
func (l *Ledger) DB() *sql.DB { return l.db }

// Config returns the config the ledger resolves with.
func (l *Ledger) Config() *config.Config { return l.cfg }

// Now is the resolver anchor used for writes.
func (l *Ledger) Now() time.Time { return l.clock.Now() }

// Begin inserts the pending row for a recording and returns its id.
func (l *Ledger) Begin(ctx context.Context, audioFile string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out, err := Begin(ctx, l.db, BeginInput{AudioFile: audioFile, Now: l.clock.Now()})
	if err != nil {
		return "", err
	}
	l.log.WithFields(logrus.Fields{"record_id": out.ID, "audio_file": audioFile}).Debug("recording row opened")
	return out.ID, nil
}

// Finalize resolves transcript into the pending row id and returns the stored exchange string.
func (l *Ledger) Finalize(ctx context.Context, id, transcript string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out, err := Finalize(ctx, l.db, l.cfg, FinalizeInput{ID: id, Transcript: transcript, Now: l.clock.Now()})
	if err != nil {
		l.log.WithFields(logrus.Fields{"record_id": id}).WithError(err).Info("recording not resolved")
		return "", err
	}
	l.log.WithFields(logrus.Fields{"record_id": id, "alarm_time": out.AlarmTime}).Info("reminder resolved")
	return out.AlarmTime, nil
}

// Add resolves and appends a reminder in one step.
func (l *Ledger) Add(ctx context.Context, audioFile, transcript string) (*ResolvedOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out, err := Add(ctx, l.db, l.cfg, AddInput{AudioFile: audioFile, Transcript: transcript, Now: l.clock.Now()})
	if err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{"record_id": out.ID, "alarm_time": out.AlarmTime}).Info("reminder added")
	return out, nil
}

// Import appends the records of a JSONL export.
func (l *Ledger) Import(ctx context.Context, path string) (*ImportOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out, err := Import(ctx, l.db, l.cfg, ImportInput{Path: path})
	if err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{"path": path, "imported": out.Imported, "skipped": out.Skipped}).Info("import finished")
	return out, nil
}

// Count returns the number of resolved reminders.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	if err := checkContext(ctx, "count"); err != nil {
		return 0, err
	}
	return db.CountResolved(l.db)
}

// AudioFileAt returns the audio file of the reminder at a list position.
func (l *Ledger) AudioFileAt(ctx context.Context, index int) (string, error) {
	if err := checkContext(ctx, "fetch"); err != nil {
		return "", err
	}
	rec, err := db.GetResolvedAt(l.db, index)
	if err != nil {
		return "", err
	}
	return rec.AudioFile, nil
}
