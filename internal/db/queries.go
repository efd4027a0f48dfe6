package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/reminder"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.ReminderError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

const selectColumns = `
	SELECT seq, id, audio_file, alarm_time, transcript, status, created_at, resolved_at
	FROM reminders
`

// Insert stores a new reminder row and sets r.Seq to the assigned insertion order.
// Pending rows are stored without an alarm time.
func Insert(db *sql.DB, r *reminder.Record) error {
	if !r.Status.Valid() {
		return errors.NewInvalidRequest("unknown status: " + string(r.Status))
	}
	alarm := toNullString(r.AlarmTime)
	if r.Status == reminder.StatusPending {
		alarm = sql.NullString{}
	}

	query := `
		INSERT INTO reminders (id, audio_file, alarm_time, transcript, status, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := db.Exec(query,
		r.ID, r.AudioFile, alarm, r.Transcript, string(r.Status), r.CreatedAt, toNullInt64(r.ResolvedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return errors.NewInternal(err)
	}
	r.Seq = seq
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Finalize completes a pending row with its alarm time and transcript.
// Returns NOT_FOUND if the row doesn't exist and INVALID_STATE if it is no longer pending.
func Finalize(db *sql.DB, id, alarmTime, transcript string, resolvedAt int64) error {
	query := `
		UPDATE reminders
		SET alarm_time = ?, transcript = ?, status = 'resolved', resolved_at = ?
		WHERE id = ? AND status = 'pending'
	`
	res, err := db.Exec(query, alarmTime, transcript, resolvedAt, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return checkTransition(db, res, id)
}

// Discard marks a pending row as discarded, keeping whatever transcript was heard.
func Discard(db *sql.DB, id, transcript string, at int64) error {
	query := `
		UPDATE reminders
		SET transcript = ?, status = 'discarded', resolved_at = ?
		WHERE id = ? AND status = 'pending'
	`
	res, err := db.Exec(query, transcript, at, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return checkTransition(db, res, id)
}

// checkTransition turns a zero-row pending update into NOT_FOUND or INVALID_STATE.
func checkTransition(db *sql.DB, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 1 {
		return nil
	}
	r, err := GetByID(db, id)
	if err != nil {
		return err
	}
	return errors.NewInvalidState(id, string(r.Status))
}

// GetByID retrieves a reminder by its ULID, whatever its status.
func GetByID(db *sql.DB, id string) (*reminder.Record, error) {
	row := db.QueryRow(selectColumns+` WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// ListResolved returns every resolved reminder in insertion order,
// or newest first when desc is true.
func ListResolved(ctx context.Context, db *sql.DB, desc bool) ([]reminder.Record, error) {
	order := "ASC"
	if desc {
		order = "DESC"
	}
	rows, err := db.QueryContext(ctx, selectColumns+` WHERE status = 'resolved' ORDER BY seq `+order)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []reminder.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewCancelled("list")
		}
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CountResolved returns the number of resolved reminders.
func CountResolved(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM reminders WHERE status = 'resolved'`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// GetLatestResolved returns the most recently inserted resolved reminder.
// Returns (nil, nil) when the log is empty.
func GetLatestResolved(db *sql.DB) (*reminder.Record, error) {
	row := db.QueryRow(selectColumns + ` WHERE status = 'resolved' ORDER BY seq DESC LIMIT 1`)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetResolvedAt returns the resolved reminder at zero-based position index in
// insertion order. Returns INVALID_REQUEST when index is outside [0, count).
func GetResolvedAt(db *sql.DB, index int) (*reminder.Record, error) {
	if index < 0 {
		n, err := CountResolved(db)
		if err != nil {
			return nil, err
		}
		return nil, errors.NewIndexOutOfRange(index, n)
	}
	row := db.QueryRow(selectColumns+` WHERE status = 'resolved' ORDER BY seq ASC LIMIT 1 OFFSET ?`, index)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		n, cerr := CountResolved(db)
		if cerr != nil {
			return nil, cerr
		}
		return nil, errors.NewIndexOutOfRange(index, n)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// StreamForExport calls fn for each resolved reminder in insertion order.
// Iteration stops at the first error fn returns.
func StreamForExport(ctx context.Context, db *sql.DB, fn func(*reminder.Record) error) error {
	rows, err := db.QueryContext(ctx, selectColumns+` WHERE status = 'resolved' ORDER BY seq ASC`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return errors.NewInternal(err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return errors.NewCancelled("export")
		}
		return errors.NewInternal(err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a Record.
func scanRecord(row rowScanner) (*reminder.Record, error) {
	var (
		r          reminder.Record
		alarm      sql.NullString
		status     string
		resolvedAt sql.NullInt64
	)
	err := row.Scan(&r.Seq, &r.ID, &r.AudioFile, &alarm, &r.Transcript, &status, &r.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	r.AlarmTime = fromNullString(alarm)
	r.Status = reminder.Status(status)
	r.ResolvedAt = fromNullInt64(resolvedAt)
	return &r, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
