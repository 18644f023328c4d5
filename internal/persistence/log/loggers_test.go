package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/JacquesGariepy/plant-game/internal/sim/garden"
)

func TestCareLoggerWritesDecodableLines(t *testing.T) {
	dir := t.TempDir()
	l := NewCareLogger(dir)

	entries := []garden.CareLogEntry{
		{Actor: "alice", Message: "watered Fern", TsMs: 1},
		{Actor: "bob", Message: "pruned Fern", TsMs: 2},
	}
	for _, e := range entries {
		if err := l.WriteCare(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "care", "care-*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("files = %v (%v)", files, err)
	}
	f, err := os.Open(files[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	var got []garden.CareLogEntry
	for sc.Scan() {
		var e garden.CareLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Actor != "alice" || got[1].TsMs != 2 {
		t.Fatalf("entries = %+v", got)
	}
}
