package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning carries every rate, threshold and cooldown the simulation uses.
// Continuous rates are per hour of wall-clock time; the tick engine scales
// them by actual elapsed time, never by an assumed fixed step.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickIntervalMs         int `yaml:"tick_interval_ms"`
	SaveIntervalSec        int `yaml:"save_interval_sec"`
	SaveMinSpacingSec      int `yaml:"save_min_spacing_sec"`
	LeaderboardIntervalSec int `yaml:"leaderboard_interval_sec"`
	EventCheckIntervalSec  int `yaml:"event_check_interval_sec"`

	MaxPlants     int `yaml:"max_plants"`
	MaxLogEntries int `yaml:"max_log_entries"`
	LeaderboardN  int `yaml:"leaderboard_n"`

	Rates     Rates     `yaml:"rates"`
	Actions   Actions   `yaml:"actions"`
	Cooldowns Cooldowns `yaml:"cooldowns"`
	Scoring   Scoring   `yaml:"scoring"`
	Growth    Growth    `yaml:"growth"`
}

// Rates are per-hour drift magnitudes.
type Rates struct {
	HealthLoss       float64 `yaml:"health_loss"`
	HealthRegen      float64 `yaml:"health_regen"`
	AgingHealthLoss  float64 `yaml:"aging_health_loss"`
	WaterDepletion   float64 `yaml:"water_depletion"`
	EnergyGain       float64 `yaml:"energy_gain"`
	EnergyDepletion  float64 `yaml:"energy_depletion"`
	FertDepletion    float64 `yaml:"fert_depletion"`
	PestIncrease     float64 `yaml:"pest_increase"`
	PestDecrease     float64 `yaml:"pest_decrease"`
	EnvChangePerHour float64 `yaml:"env_change_per_hour"`
}

// Actions are per-click effect magnitudes.
type Actions struct {
	WaterBoost      float64 `yaml:"water_boost"`
	FertilizerBoost float64 `yaml:"fertilizer_boost"`
	PesticideEffect float64 `yaml:"pesticide_effect"`
	CleanEnergy     float64 `yaml:"clean_energy"`
	PruneBoost      float64 `yaml:"prune_boost"`
	TalkEnergy      float64 `yaml:"talk_energy"`
	MistWater       float64 `yaml:"mist_water"`
	MistEnergy      float64 `yaml:"mist_energy"`
	WaterAllBoost   float64 `yaml:"water_all_boost"`
	MusicDurationMs int     `yaml:"music_duration_ms"`
}

// Cooldowns are milliseconds; zero disables the gate.
type Cooldowns struct {
	Talk      int `yaml:"talk_ms"`
	Fertilize int `yaml:"fertilize_ms"`
	Pesticide int `yaml:"pesticide_ms"`
	Repot     int `yaml:"repot_ms"`
	PlayMusic int `yaml:"play_music_ms"`
	Clean     int `yaml:"clean_ms"`
	Prune     int `yaml:"prune_ms"`
	CheckEnv  int `yaml:"check_env_ms"`
	Create    int `yaml:"create_ms"`
	Observe   int `yaml:"observe_ms"`
	Harvest   int `yaml:"harvest_ms"`
	Mist      int `yaml:"mist_ms"`
	WaterAll  int `yaml:"water_all_ms"`
	PlantSeed int `yaml:"plant_seed_ms"`
}

type Scoring struct {
	PerAction    int `yaml:"per_action"`
	PerGrowth    int `yaml:"per_growth"`
	PerFlower    int `yaml:"per_flower"`
	PerHarvest   int `yaml:"per_harvest"`
	PerObserve   int `yaml:"per_observe"`
	PerMist      int `yaml:"per_mist"`
	PerPlantSeed int `yaml:"per_plant_seed"`
	HarvestCoins int `yaml:"harvest_coins"`
}

// Growth holds cumulative stage thresholds in hours of effective age.
type Growth struct {
	SproutHours    float64 `yaml:"sprout_hours"`
	YoungHours     float64 `yaml:"young_hours"`
	MatureHours    float64 `yaml:"mature_hours"`
	FloweringHours float64 `yaml:"flowering_hours"`
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Defaults mirror the documented production values.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:        "1.0",
		TickIntervalMs:         1000,
		SaveIntervalSec:        20,
		SaveMinSpacingSec:      5,
		LeaderboardIntervalSec: 10,
		EventCheckIntervalSec:  300,
		MaxPlants:              50,
		MaxLogEntries:          30,
		LeaderboardN:           10,
		Rates: Rates{
			HealthLoss:       3,
			HealthRegen:      1,
			AgingHealthLoss:  1,
			WaterDepletion:   4,
			EnergyGain:       15,
			EnergyDepletion:  8,
			FertDepletion:    3,
			PestIncrease:     2,
			PestDecrease:     1,
			EnvChangePerHour: 180,
		},
		Actions: Actions{
			WaterBoost:      30,
			FertilizerBoost: 40,
			PesticideEffect: 50,
			CleanEnergy:     3,
			PruneBoost:      5,
			TalkEnergy:      5,
			MistWater:       5,
			MistEnergy:      2,
			WaterAllBoost:   8,
			MusicDurationMs: int((2 * time.Minute).Milliseconds()),
		},
		Cooldowns: Cooldowns{
			Talk:      int((1 * time.Minute).Milliseconds()),
			Fertilize: int((5 * time.Minute).Milliseconds()),
			Pesticide: int((10 * time.Minute).Milliseconds()),
			Repot:     int((12 * time.Hour).Milliseconds()),
			PlayMusic: int((15 * time.Minute).Milliseconds()),
			Clean:     int((2 * time.Minute).Milliseconds()),
			Prune:     int((6 * time.Hour).Milliseconds()),
			CheckEnv:  int((30 * time.Second).Milliseconds()),
			Create:    int((1 * time.Minute).Milliseconds()),
			Observe:   int((1 * time.Minute).Milliseconds()),
			Harvest:   int((4 * time.Hour).Milliseconds()),
			Mist:      int((30 * time.Second).Milliseconds()),
			WaterAll:  int((5 * time.Minute).Milliseconds()),
			PlantSeed: int((1 * time.Minute).Milliseconds()),
		},
		Scoring: Scoring{
			PerAction:    1,
			PerGrowth:    10,
			PerFlower:    50,
			PerHarvest:   25,
			PerObserve:   2,
			PerMist:      1,
			PerPlantSeed: 5,
			HarvestCoins: 10,
		},
		Growth: Growth{
			SproutHours:    1,
			YoungHours:     6,
			MatureHours:    24,
			FloweringHours: 72,
		},
	}
}
