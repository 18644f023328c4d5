// Package snapshot defines the versioned on-disk representation of the
// full simulation state and its codec (zstd-compressed gob with a JSON
// header line for quick inspection).
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version     int   `json:"version"`
	SavedAtUnix int64 `json:"saved_at_ms"`
}

// SnapshotV1 is a best-effort capture: every field is optional-shaped and
// the garden backfills documented defaults on import.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Plants  []PlantV1  `json:"plants"`
	Ledgers []LedgerV1 `json:"ledgers"`
	Logs    []LogV1    `json:"logs,omitempty"`
	Event   *EventV1   `json:"event,omitempty"`
}

type PlantV1 struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`

	Characteristics CharacteristicsV1 `json:"characteristics"`

	Health     float64 `json:"health"`
	Water      float64 `json:"water"`
	Energy     float64 `json:"energy"`
	Fertilizer float64 `json:"fertilizer"`
	Pest       float64 `json:"pest"`

	EnvStatus   string `json:"env_status"`
	GrowthStage string `json:"growth_stage"`
	PotSize     string `json:"pot_size"`
	PotColor    string `json:"pot_color"`

	LightOn      bool  `json:"light_on"`
	MusicPlaying bool  `json:"music_playing"`
	MusicEndMs   int64 `json:"music_end_ms"`

	BornMs       int64 `json:"born_ms"`
	LastUpdateMs int64 `json:"last_update_ms"`

	LastActors   map[string]string `json:"last_actors,omitempty"`
	LastActionMs map[string]int64  `json:"last_action_ms,omitempty"`
}

type CharacteristicsV1 struct {
	WaterNeedFactor      float64 `json:"water_need_factor"`
	LightNeedFactor      float64 `json:"light_need_factor"`
	FertilizerNeedFactor float64 `json:"fertilizer_need_factor"`
	GrowthRateFactor     float64 `json:"growth_rate_factor"`
	PestResistFactor     float64 `json:"pest_resist_factor"`
	EnvResistFactor      float64 `json:"env_resist_factor"`
	LifespanFactor       float64 `json:"lifespan_factor"`

	WaterTolerance string `json:"water_tolerance"`
	LightTolerance string `json:"light_tolerance"`

	BaseColor   string `json:"base_color"`
	LeafShape   string `json:"leaf_shape"`
	FlowerColor string `json:"flower_color"`
	RareTrait   string `json:"rare_trait,omitempty"`
}

type LedgerV1 struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Coins    int    `json:"coins"`
	Seeds    int    `json:"seeds"`
}

type LogV1 struct {
	Actor   string `json:"actor"`
	Message string `json:"message"`
	TsMs    int64  `json:"ts_ms"`
}

type EventV1 struct {
	EventID     string             `json:"event_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	EndMs       int64              `json:"end_ms"`
	Multipliers map[string]float64 `json:"multipliers,omitempty"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	write := func() error {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		bw := bufio.NewWriterSize(enc, 256*1024)

		hb, _ := json.Marshal(snap.Header)
		if _, err := bw.Write(hb); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
			return fmt.Errorf("gob encode: %w", err)
		}
		if err := bw.Flush(); err != nil {
			return err
		}
		return enc.Close()
	}

	if err := write(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename keeps the previous snapshot intact on partial failure.
	return os.Rename(tmp, path)
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is informational; gob carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
