package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/reminder"
	"github.com/hpungsan/remind/internal/timeexpr"
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required, a .jsonl export
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import appends the resolved reminders of a JSONL export, in file order.
// Malformed lines are skipped and reported; they never abort the import.
// Records whose id already exists get a fresh id, so nothing is overwritten.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if err := ValidatePath(input.Path, ForImport, cfg); err != nil {
		return nil, err
	}

	file, err := openImportSource(input.Path)
	if err != nil {
		if _, ok := err.(*errors.ReminderError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, importErrors := parseExportFile(file)
	out := &ImportOutput{Errors: importErrors, Skipped: len(importErrors)}

	for _, lr := range records {
		if err := checkContext(ctx, "import"); err != nil {
			return nil, err
		}

		rec := lr.record.ToRecord()
		exists, err := idExists(database, rec.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			id, err := generateULID(time.Now())
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			rec.ID = id
		}

		if err := db.Insert(database, rec); err != nil {
			out.Errors = append(out.Errors, ImportError{
				Line:    lr.line,
				ID:      rec.ID,
				Code:    "INSERT_FAILED",
				Message: fmt.Sprintf("failed to insert: %v", err),
			})
			out.Skipped++
			continue
		}
		out.Imported++
	}

	return out, nil
}

func idExists(database *sql.DB, id string) (bool, error) {
	_, err := db.GetByID(database, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

type lineRecord struct {
	line   int
	record reminder.ExportRecord
}

// parseExportFile parses a JSONL export into importable records.
// Only resolved records with a well-formed alarm time are importable.
func parseExportFile(r io.Reader) ([]lineRecord, []ImportError) {
	var records []lineRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record reminder.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		// Skip header line
		if record.RemindExport {
			continue
		}

		if record.ID == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}
		if record.Status != reminder.StatusResolved {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      record.ID,
				Code:    "INVALID_RECORD",
				Message: fmt.Sprintf("status %q is not importable", record.Status),
			})
			continue
		}
		raw := ""
		if record.AlarmTime != nil {
			raw = *record.AlarmTime
		}
		if _, err := timeexpr.Parse(raw); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      record.ID,
				Code:    string(errors.ErrMalformedTimestamp),
				Message: err.Error(),
			})
			continue
		}
		if record.AudioFile != "" {
			if err := ValidateAudioName(record.AudioFile); err != nil {
				parseErrors = append(parseErrors, ImportError{
					Line:    lineNum,
					ID:      record.ID,
					Code:    "INVALID_RECORD",
					Message: err.Error(),
				})
				continue
			}
		}

		records = append(records, lineRecord{line: lineNum, record: record})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}
