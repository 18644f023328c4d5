package garden

import (
	"time"

	"github.com/JacquesGariepy/plant-game/internal/sim/traits"
)

type GrowthStage string

const (
	StageSeed      GrowthStage = "SEED"
	StageSprout    GrowthStage = "SPROUT"
	StageYoung     GrowthStage = "YOUNG"
	StageMature    GrowthStage = "MATURE"
	StageFlowering GrowthStage = "FLOWERING"
)

var stageOrder = []GrowthStage{StageSeed, StageSprout, StageYoung, StageMature, StageFlowering}

func stageIndex(s GrowthStage) int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s GrowthStage) valid() bool { return stageIndex(s) >= 0 }

// next returns the following stage, or "" on the terminal stage.
func (s GrowthStage) next() GrowthStage {
	i := stageIndex(s)
	if i < 0 || i+1 >= len(stageOrder) {
		return ""
	}
	return stageOrder[i+1]
}

func (s GrowthStage) terminal() bool { return s == StageFlowering }

// Pruning is allowed from Young onward, repotting from Mature onward.
func (s GrowthStage) canPrune() bool { return stageIndex(s) >= stageIndex(StageYoung) }
func (s GrowthStage) canRepot() bool { return stageIndex(s) >= stageIndex(StageMature) }

// matureOrLater gates the aging penalty.
func (s GrowthStage) matureOrLater() bool { return stageIndex(s) >= stageIndex(StageMature) }

type PotSize string

const (
	PotSmall  PotSize = "SMALL"
	PotMedium PotSize = "MEDIUM"
	PotLarge  PotSize = "LARGE"
)

func (p PotSize) valid() bool {
	switch p {
	case PotSmall, PotMedium, PotLarge:
		return true
	}
	return false
}

func (p PotSize) bigger() PotSize {
	switch p {
	case PotSmall:
		return PotMedium
	case PotMedium:
		return PotLarge
	}
	return PotLarge
}

type EnvStatus string

const (
	EnvOptimal  EnvStatus = "OPTIMAL"
	EnvCold     EnvStatus = "SLIGHTLY_COLD"
	EnvHot      EnvStatus = "SLIGHTLY_HOT"
	EnvDry      EnvStatus = "SLIGHTLY_DRY"
	EnvHumid    EnvStatus = "SLIGHTLY_HUMID"
	EnvInfested EnvStatus = "PEST_INFESTED"
)

var envStatuses = []EnvStatus{EnvOptimal, EnvCold, EnvHot, EnvDry, EnvHumid, EnvInfested}

// nonInfestedStatuses is the re-roll pool when the infestation draw misses.
var nonInfestedStatuses = []EnvStatus{EnvOptimal, EnvCold, EnvHot, EnvDry, EnvHumid}

func (e EnvStatus) valid() bool {
	for _, s := range envStatuses {
		if s == e {
			return true
		}
	}
	return false
}

// adverse reports whether the status carries the mild health penalty: any
// state that is neither optimal nor infested (infestation is penalized via
// pest pressure instead).
func (e EnvStatus) adverse() bool { return e != EnvOptimal && e != EnvInfested }

const defaultPotColor = "#A1887F"

// SystemCreatorID marks entities seeded by the simulation itself; they earn
// no creator rewards.
const SystemCreatorID = "system"

// Plant is the mutable simulation entity. It is owned exclusively by the
// Garden loop; nothing outside the loop may hold a reference.
type Plant struct {
	ID          string
	Name        string
	CreatorID   string
	CreatorName string

	Characteristics traits.Characteristics

	Health     float64
	Water      float64
	Energy     float64
	Fertilizer float64
	Pest       float64

	EnvStatus      EnvStatus
	GrowthStage    GrowthStage
	GrowthProgress float64
	PotSize        PotSize
	PotColor       string

	LightOn      bool
	MusicPlaying bool
	MusicEnd     time.Time

	Born       time.Time
	LastUpdate time.Time

	// LastActors remembers who last performed each action, LastAction when.
	LastActors map[ActionKind]string
	LastAction map[ActionKind]time.Time
}

func (p *Plant) Wilted() bool { return p.Health <= 0 }

func (p *Plant) lastActionAt(kind ActionKind) time.Time {
	if p.LastAction == nil {
		return time.Time{}
	}
	return p.LastAction[kind]
}

func (p *Plant) recordAction(kind ActionKind, actor string, now time.Time) {
	if p.LastAction == nil {
		p.LastAction = map[ActionKind]time.Time{}
	}
	if p.LastActors == nil {
		p.LastActors = map[ActionKind]string{}
	}
	p.LastAction[kind] = now
	p.LastActors[kind] = actor
}

func clamp01To100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (p *Plant) addHealth(d float64)     { p.Health = clamp01To100(p.Health + d) }
func (p *Plant) addWater(d float64)      { p.Water = clamp01To100(p.Water + d) }
func (p *Plant) addEnergy(d float64)     { p.Energy = clamp01To100(p.Energy + d) }
func (p *Plant) addFertilizer(d float64) { p.Fertilizer = clamp01To100(p.Fertilizer + d) }
func (p *Plant) addPest(d float64)       { p.Pest = clamp01To100(p.Pest + d) }
