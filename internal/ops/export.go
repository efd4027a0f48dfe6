package ops

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/reminder"
)

// ExportFormat selects the export file layout.
type ExportFormat string

const (
	ExportJSONL ExportFormat = "jsonl" // header line plus one record per line, re-importable
	ExportHTML  ExportFormat = "html"  // read-only agenda grouped by day
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path   string       // optional, default: ~/.remind/exports/reminders-<timestamp>.<format>
	Format ExportFormat // optional, inferred from Path's extension, else jsonl
	Now    time.Time    // optional, default time.Now()
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string       `json:"path"`
	Format     ExportFormat `json:"format"`
	Count      int          `json:"count"`
	ExportedAt int64        `json:"exported_at"`
}

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	RemindExport  bool   `json:"_remind_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Export writes resolved reminders to a JSONL file or an HTML agenda.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := nowOr(input.Now)
	exportedAt := now.Unix()

	format, err := exportFormat(input)
	if err != nil {
		return nil, err
	}

	// Determine export path
	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(format, now)
		if err != nil {
			return nil, err
		}
	} else if filepath.Ext(exportPath) != "."+string(format) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("path extension does not match format %q", format))
	}

	// Validate ALL paths (both user-provided and default) for security
	if err := ValidatePath(exportPath, ForExport, cfg); err != nil {
		return nil, err
	}

	var count int
	err = writeAtomic(exportPath, func(w io.Writer) error {
		var werr error
		if format == ExportHTML {
			count, werr = writeAgenda(ctx, database, cfg, w, now)
		} else {
			count, werr = writeJSONL(ctx, database, w, exportedAt)
		}
		return werr
	})
	if err != nil {
		return nil, err
	}

	return &ExportOutput{
		Path:       exportPath,
		Format:     format,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}

func exportFormat(input ExportInput) (ExportFormat, error) {
	format := input.Format
	if format == "" {
		format = ExportJSONL
		if strings.EqualFold(filepath.Ext(input.Path), ".html") {
			format = ExportHTML
		}
	}
	if format != ExportJSONL && format != ExportHTML {
		return "", errors.NewInvalidRequest("format must be one of: jsonl, html")
	}
	return format, nil
}

// writeJSONL streams the header and every resolved reminder, one JSON object per line.
func writeJSONL(ctx context.Context, database *sql.DB, w io.Writer, exportedAt int64) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	header := ExportHeader{
		RemindExport:  true,
		SchemaVersion: SchemaVersion,
		ExportedAt:    exportedAt,
	}
	if err := enc.Encode(header); err != nil {
		return 0, errors.NewInternal(err)
	}

	count := 0
	err := db.StreamForExport(ctx, database, func(r *reminder.Record) error {
		if err := checkContext(ctx, "export"); err != nil {
			return err
		}
		if err := enc.Encode(reminder.RecordToExportRecord(r)); err != nil {
			return errors.NewInternal(err)
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// agendaPage wraps the rendered agenda body.
var agendaPage = template.Must(template.New("agenda").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}<footer>Exported {{.ExportedAt}}</footer>
</body>
</html>
`))

// writeAgenda renders the resolved reminders as a Markdown agenda and converts it to HTML.
func writeAgenda(ctx context.Context, database *sql.DB, cfg *config.Config, w io.Writer, now time.Time) (int, error) {
	cfg = orDefault(cfg)
	list, err := List(ctx, database, cfg, ListInput{})
	if err != nil {
		return 0, err
	}

	md := reminder.Agenda("Reminders", list.Items)
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md), &body); err != nil {
		return 0, errors.NewInternal(fmt.Errorf("failed to render agenda: %w", err))
	}

	err = agendaPage.Execute(w, map[string]any{
		"Lang":       string(cfg.DisplayLocale()),
		"Title":      "Reminders",
		"Body":       template.HTML(body.String()),
		"ExportedAt": now.Format("2006-01-02 15:04"),
	})
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return len(list.Items), nil
}

// writeAtomic writes to a temp file next to path, then renames it into place
// so an existing file is preserved on failure.
func writeAtomic(path string, write func(io.Writer) error) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openExportTarget(tempPath)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up temp file on failure (existing file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	bw := bufio.NewWriter(file)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// Check if destination is a symlink (os.Rename would follow it)
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// On Windows, os.Rename fails if the destination exists. Fail and keep the
	// existing file rather than delete+rename.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// defaultExportPath generates the default export path.
// Format: ~/.remind/exports/reminders-<timestamp>.<format>
func defaultExportPath(format ExportFormat, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	name := "reminders-" + now.Format("2006-01-02T150405")
	return filepath.Join(dir, name+"."+string(format)), nil
}
