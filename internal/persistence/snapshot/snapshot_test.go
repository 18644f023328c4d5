package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garden", "snap-1.bin.zst")
	in := SnapshotV1{
		Header: Header{Version: 1, SavedAtUnix: 1234567890},
		Plants: []PlantV1{{
			ID:          "p1",
			Name:        "Gaia Prime",
			CreatorID:   "system",
			CreatorName: "System",
			Health:      100,
			Water:       80,
			GrowthStage: "SEED",
			LastActionMs: map[string]int64{
				"water": 111,
			},
		}},
		Ledgers: []LedgerV1{{PlayerID: "u1", Name: "alice", Score: 42, Coins: 7, Seeds: 1}},
		Logs:    []LogV1{{Actor: "alice", Message: "watered Gaia Prime", TsMs: 5}},
		Event:   &EventV1{EventID: "growth_spurt", EndMs: 999, Multipliers: map[string]float64{"growth": 1.3}},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out.Plants) != 1 || out.Plants[0].Name != "Gaia Prime" {
		t.Fatalf("plants: %+v", out.Plants)
	}
	if out.Plants[0].LastActionMs["water"] != 111 {
		t.Fatalf("last action ms: %+v", out.Plants[0].LastActionMs)
	}
	if len(out.Ledgers) != 1 || out.Ledgers[0].Score != 42 {
		t.Fatalf("ledgers: %+v", out.Ledgers)
	}
	if out.Event == nil || out.Event.Multipliers["growth"] != 1.3 {
		t.Fatalf("event: %+v", out.Event)
	}
}

func TestWriteSnapshot_NoTmpLeftover(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.bin.zst")
	if err := WriteSnapshot(path, SnapshotV1{Header: Header{Version: 1}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}
}
