package ops

import (
	"context"
	"testing"
)

func TestLatest_Empty(t *testing.T) {
	database, _ := setupDB(t)

	out, err := Latest(context.Background(), database, nil)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item != nil {
		t.Errorf("Item = %+v, want nil", out.Item)
	}
}

func TestLatest_MostRecentInsert(t *testing.T) {
	database, _ := setupDB(t)
	mustAdd(t, database, "3월 5일")
	last := mustAdd(t, database, "내일 오후 3시")

	out, err := Latest(context.Background(), database, nil)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item == nil || out.Item.ID != last.ID {
		t.Fatalf("Item = %+v, want %s", out.Item, last.ID)
	}
	if out.Item.Index != 1 {
		t.Errorf("Index = %d, want 1", out.Item.Index)
	}
	if out.Item.Display != "15:00(1월11일)" {
		t.Errorf("Display = %q, want 15:00(1월11일)", out.Item.Display)
	}
}

func TestLatest_SkipsMalformedNewest(t *testing.T) {
	database, _ := setupDB(t)
	first := mustAdd(t, database, "5시")
	insertRaw(t, database, "BAD", "x:y")

	out, err := Latest(context.Background(), database, nil)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item == nil || out.Item.ID != first.ID {
		t.Fatalf("Item = %+v, want %s", out.Item, first.ID)
	}
	if out.Item.Index != 0 {
		t.Errorf("Index = %d, want 0", out.Item.Index)
	}
	if len(out.Skipped) != 1 || out.Skipped[0].ID != "BAD" || out.Skipped[0].AlarmTime != "x:y" {
		t.Errorf("Skipped = %+v, want the BAD row", out.Skipped)
	}
}

func TestLatest_OnlyMalformedRows(t *testing.T) {
	database, _ := setupDB(t)
	insertRaw(t, database, "BAD", "2024:13:1:0:0")

	out, err := Latest(context.Background(), database, nil)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if out.Item != nil || len(out.Skipped) != 1 {
		t.Errorf("Latest = %+v, want nil item and one skipped row", out)
	}
}
