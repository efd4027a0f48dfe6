package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/remind/internal/clock"
	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/errors"
)

func newTestLedger(t *testing.T) (*Ledger, *clock.Manual) {
	t.Helper()
	database, _ := setupDB(t)
	clk := clock.NewManual(testNow)
	return NewLedger(database, config.DefaultConfig(), clk, nil), clk
}

func TestLedger_RecordingLifecycle(t *testing.T) {
	l, clk := newTestLedger(t)
	ctx := context.Background()

	id, err := l.Begin(ctx, "2024-01-10_090000.pcm")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if n, _ := l.Count(ctx); n != 0 {
		t.Errorf("Count while pending = %d, want 0", n)
	}

	// Transcription finishes a few seconds later; the resolver uses that instant.
	clk.Advance(5 * time.Second)
	alarm, err := l.Finalize(ctx, id, "내일 오후 3시에 회의")
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if alarm != "2024:1:11:15:0" {
		t.Errorf("alarm = %q, want 2024:1:11:15:0", alarm)
	}

	n, err := l.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v; want 1", n, err)
	}
	file, err := l.AudioFileAt(ctx, 0)
	if err != nil {
		t.Fatalf("AudioFileAt failed: %v", err)
	}
	if file != "2024-01-10_090000.pcm" {
		t.Errorf("AudioFileAt(0) = %q", file)
	}
	if _, err := l.AudioFileAt(ctx, 1); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("AudioFileAt(1) error = %v, want INVALID_REQUEST", err)
	}
}

func TestLedger_ConcurrentAdds(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := l.Add(ctx, fmt.Sprintf("w%d-%d.pcm", w, i), "내일 5시"); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Add failed: %v", err)
	}

	n, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != workers*perWorker {
		t.Errorf("Count = %d, want %d", n, workers*perWorker)
	}

	list, err := List(ctx, l.DB(), l.Config(), ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", list.Skipped)
	}
}

func TestLedger_Import(t *testing.T) {
	l, _ := newTestLedger(t)
	dir := t.TempDir()
	l.cfg.AllowedPaths = []string{dir}

	path := filepath.Join(dir, "in.jsonl")
	writeExportFile(t, path, `{"id":"X1","audio_file":"x.pcm","alarm_time":"2024:5:1:8:30","transcript":"t","status":"resolved","created_at":1}`)

	out, err := l.Import(context.Background(), path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 1 {
		t.Errorf("Imported = %d, want 1", out.Imported)
	}
}
