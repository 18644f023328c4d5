package garden

import (
	"time"

	"github.com/JacquesGariepy/plant-game/internal/persistence/snapshot"
	"github.com/JacquesGariepy/plant-game/internal/sim/traits"
)

// maybeSnapshot hands a state capture to the snapshot writer when the save
// interval elapsed. A minimum spacing guards against tight loops after long
// stalls.
func (g *Garden) maybeSnapshot(now time.Time) {
	if g.snapshotSink == nil {
		return
	}
	interval := time.Duration(g.tune.SaveIntervalSec) * time.Second
	spacing := time.Duration(g.tune.SaveMinSpacingSec) * time.Second
	if !g.lastSave.IsZero() && (now.Sub(g.lastSave) < interval || now.Sub(g.lastSave) < spacing) {
		return
	}
	select {
	case g.snapshotSink <- g.ExportSnapshot(now):
		g.lastSave = now
	default:
		// Writer is behind; try again next tick.
	}
}

// ExportSnapshot captures the full state as the versioned disk format.
func (g *Garden) ExportSnapshot(now time.Time) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, SavedAtUnix: now.UnixMilli()},
	}
	for _, p := range g.plants {
		c := p.Characteristics
		pv := snapshot.PlantV1{
			ID:          p.ID,
			Name:        p.Name,
			CreatorID:   p.CreatorID,
			CreatorName: p.CreatorName,
			Characteristics: snapshot.CharacteristicsV1{
				WaterNeedFactor:      c.WaterNeedFactor,
				LightNeedFactor:      c.LightNeedFactor,
				FertilizerNeedFactor: c.FertilizerNeedFactor,
				GrowthRateFactor:     c.GrowthRateFactor,
				PestResistFactor:     c.PestResistFactor,
				EnvResistFactor:      c.EnvResistFactor,
				LifespanFactor:       c.LifespanFactor,
				WaterTolerance:       string(c.WaterTolerance),
				LightTolerance:       string(c.LightTolerance),
				BaseColor:            c.BaseColor,
				LeafShape:            c.LeafShape,
				FlowerColor:          c.FlowerColor,
				RareTrait:            c.RareTrait,
			},
			Health:       p.Health,
			Water:        p.Water,
			Energy:       p.Energy,
			Fertilizer:   p.Fertilizer,
			Pest:         p.Pest,
			EnvStatus:    string(p.EnvStatus),
			GrowthStage:  string(p.GrowthStage),
			PotSize:      string(p.PotSize),
			PotColor:     p.PotColor,
			LightOn:      p.LightOn,
			MusicPlaying: p.MusicPlaying,
			BornMs:       p.Born.UnixMilli(),
			LastUpdateMs: p.LastUpdate.UnixMilli(),
		}
		if p.MusicPlaying {
			pv.MusicEndMs = p.MusicEnd.UnixMilli()
		}
		if len(p.LastActors) > 0 {
			pv.LastActors = make(map[string]string, len(p.LastActors))
			for k, v := range p.LastActors {
				pv.LastActors[string(k)] = v
			}
		}
		if len(p.LastAction) > 0 {
			pv.LastActionMs = make(map[string]int64, len(p.LastAction))
			for k, v := range p.LastAction {
				pv.LastActionMs[string(k)] = v.UnixMilli()
			}
		}
		snap.Plants = append(snap.Plants, pv)
	}
	for _, l := range g.ledgers {
		snap.Ledgers = append(snap.Ledgers, snapshot.LedgerV1{
			PlayerID: l.PlayerID,
			Name:     l.Name,
			Score:    l.Score,
			Coins:    l.Coins,
			Seeds:    l.Seeds,
		})
	}
	for _, e := range g.logs.All() {
		snap.Logs = append(snap.Logs, snapshot.LogV1{Actor: e.Actor, Message: e.Message, TsMs: e.TsMs})
	}
	if g.event != nil {
		snap.Event = &snapshot.EventV1{
			EventID:     g.event.EventID,
			Name:        g.event.Name,
			Description: g.event.Description,
			EndMs:       g.event.End.UnixMilli(),
			Multipliers: g.event.Multipliers,
		}
	}
	return snap
}

// ImportSnapshot restores state written by any V1 snapshot, backfilling
// fields older writers did not emit. Call before Run.
func (g *Garden) ImportSnapshot(snap snapshot.SnapshotV1) {
	now := g.now()
	for _, pv := range snap.Plants {
		if pv.ID == "" {
			continue
		}
		g.plants[pv.ID] = completePlant(pv, now)
	}
	for _, lv := range snap.Ledgers {
		if lv.PlayerID == "" {
			continue
		}
		g.ledgers[lv.PlayerID] = &Ledger{
			PlayerID: lv.PlayerID,
			Name:     lv.Name,
			Score:    lv.Score,
			Coins:    lv.Coins,
			Seeds:    lv.Seeds,
		}
	}
	for _, e := range snap.Logs {
		g.logs.Add(CareLogEntry{Actor: e.Actor, Message: e.Message, TsMs: e.TsMs})
	}
	if ev := snap.Event; ev != nil && ev.EndMs > now.UnixMilli() {
		g.event = &activeEvent{
			EventID:     ev.EventID,
			Name:        ev.Name,
			Description: ev.Description,
			End:         time.UnixMilli(ev.EndMs),
			Multipliers: Multipliers(ev.Multipliers),
		}
	}
}

// completePlant turns a stored record into a live entity, substituting
// documented defaults for anything missing or invalid.
func completePlant(pv snapshot.PlantV1, now time.Time) *Plant {
	p := &Plant{
		ID:          pv.ID,
		Name:        pv.Name,
		CreatorID:   pv.CreatorID,
		CreatorName: pv.CreatorName,
		Characteristics: traits.Complete(traits.Characteristics{
			WaterNeedFactor:      pv.Characteristics.WaterNeedFactor,
			LightNeedFactor:      pv.Characteristics.LightNeedFactor,
			FertilizerNeedFactor: pv.Characteristics.FertilizerNeedFactor,
			GrowthRateFactor:     pv.Characteristics.GrowthRateFactor,
			PestResistFactor:     pv.Characteristics.PestResistFactor,
			EnvResistFactor:      pv.Characteristics.EnvResistFactor,
			LifespanFactor:       pv.Characteristics.LifespanFactor,
			WaterTolerance:       traits.Tolerance(pv.Characteristics.WaterTolerance),
			LightTolerance:       traits.Tolerance(pv.Characteristics.LightTolerance),
			BaseColor:            pv.Characteristics.BaseColor,
			LeafShape:            pv.Characteristics.LeafShape,
			FlowerColor:          pv.Characteristics.FlowerColor,
			RareTrait:            pv.Characteristics.RareTrait,
		}),
		Health:       clamp01To100(pv.Health),
		Water:        clamp01To100(pv.Water),
		Energy:       clamp01To100(pv.Energy),
		Fertilizer:   clamp01To100(pv.Fertilizer),
		Pest:         clamp01To100(pv.Pest),
		EnvStatus:    EnvStatus(pv.EnvStatus),
		GrowthStage:  GrowthStage(pv.GrowthStage),
		PotSize:      PotSize(pv.PotSize),
		PotColor:     pv.PotColor,
		LightOn:      pv.LightOn,
		MusicPlaying: pv.MusicPlaying,
		LastActors:   map[ActionKind]string{},
		LastAction:   map[ActionKind]time.Time{},
	}
	if p.Name == "" {
		p.Name = "Plant_" + p.ID[:minInt(4, len(p.ID))]
	}
	if !p.EnvStatus.valid() {
		p.EnvStatus = EnvOptimal
	}
	if !p.GrowthStage.valid() {
		p.GrowthStage = StageSeed
	}
	if !p.PotSize.valid() {
		p.PotSize = PotSmall
	}
	if p.PotColor == "" {
		p.PotColor = defaultPotColor
	}
	if pv.BornMs > 0 {
		p.Born = time.UnixMilli(pv.BornMs)
	} else {
		p.Born = now
	}
	if pv.LastUpdateMs > 0 {
		p.LastUpdate = time.UnixMilli(pv.LastUpdateMs)
	} else {
		p.LastUpdate = now
	}
	if pv.MusicEndMs > 0 {
		p.MusicEnd = time.UnixMilli(pv.MusicEndMs)
	}
	if p.MusicPlaying && !p.MusicEnd.After(now) {
		p.MusicPlaying = false
	}
	for k, v := range pv.LastActors {
		p.LastActors[ActionKind(k)] = v
	}
	for k, v := range pv.LastActionMs {
		p.LastAction[ActionKind(k)] = time.UnixMilli(v)
	}
	return p
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
