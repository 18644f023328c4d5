package indexdb

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLedgerUpsertAndTop(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "garden.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	idx.UpsertLedger("u1", "alice", 10, 5, 1)
	idx.UpsertLedger("u2", "bob", 30, 0, 0)
	idx.UpsertLedger("u1", "alice", 40, 6, 1)
	idx.Flush()

	top, err := idx.TopLedgers(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("rows = %d, want 2", len(top))
	}
	if top[0].PlayerID != "u1" || top[0].Score != 40 {
		t.Fatalf("top[0] = %+v, want upserted alice", top[0])
	}
	if top[1].PlayerID != "u2" {
		t.Fatalf("top[1] = %+v", top[1])
	}
}

func TestCareAndSnapshotRows(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "garden.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	idx.RecordCare("alice", "watered Fern", 1000)
	idx.RecordCare("bob", "pruned Fern", 1000)
	idx.RecordSnapshot("/data/snap-1.bin.zst", 2000, 3, 2)
	idx.Flush()

	var n int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM care_log`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("care rows = %d, want 2 (same ts, distinct seq)", n)
	}
	var path string
	if err := idx.db.QueryRow(`SELECT path FROM snapshots WHERE saved_at_ms = 2000`).Scan(&path); err != nil {
		t.Fatal(err)
	}
	if path != "/data/snap-1.bin.zst" {
		t.Fatalf("path = %q", path)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "garden.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	// Writes after close are no-ops, not panics.
	idx.UpsertLedger("u1", "alice", 1, 0, 0)
}
