package garden

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/JacquesGariepy/plant-game/internal/protocol"
	"github.com/JacquesGariepy/plant-game/internal/sim/tuning"
)

// ActionKind keys the per-plant cooldown bookkeeping. Kinds match the wire
// verbs so the snapshot maps stay readable.
type ActionKind string

const (
	ActWater       ActionKind = protocol.VerbWater
	ActToggleLight ActionKind = protocol.VerbToggleLight
	ActClean       ActionKind = protocol.VerbClean
	ActMist        ActionKind = protocol.VerbMist
	ActFertilize   ActionKind = protocol.VerbFertilize
	ActPesticide   ActionKind = protocol.VerbPesticide
	ActPrune       ActionKind = protocol.VerbPrune
	ActRepot       ActionKind = protocol.VerbRepot
	ActHarvest     ActionKind = protocol.VerbHarvest
	ActTalk        ActionKind = protocol.VerbTalk
	ActPlayMusic   ActionKind = protocol.VerbPlayMusic
	ActObserve     ActionKind = protocol.VerbObserve
	ActCheckEnv    ActionKind = protocol.VerbCheckEnv
)

// Multipliers are the active event's effect scales. Missing categories
// default to 1.
type Multipliers map[string]float64

func (m Multipliers) Get(category string) float64 {
	if m == nil {
		return 1
	}
	if v, ok := m[category]; ok && v > 0 {
		return v
	}
	return 1
}

// Multiplier categories, matched against events.yaml.
const (
	MultFertilizer   = "fertilizer"
	MultGrowth       = "growth"
	MultPestResist   = "pest_resist"
	MultHarvestCoins = "harvest_coins"
	MultCareScore    = "care_score"
)

var errCapacity = errors.New("garden is at capacity")

type actionResult struct {
	logMsg string
	sound  string
	score  int
	coins  int
	seeds  int
}

// actionSpec describes one per-plant verb. pre returns a human message when
// the action is not applicable; apply mutates the plant and reports rewards.
// careScored marks the basic care verbs whose score the care_score event
// multiplier scales; every other reward stays at base value.
type actionSpec struct {
	kind       ActionKind
	cooldown   time.Duration
	careScored bool
	pre        func(p *Plant) (string, bool)
	apply      func(g *Garden, p *Plant, actor string, now time.Time) actionResult
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func newActionTable(t tuning.Tuning) map[ActionKind]actionSpec {
	specs := []actionSpec{
		{
			kind:       ActWater,
			careScored: true,
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.addWater(t.Actions.WaterBoost)
				p.addHealth(1)
				return actionResult{
					logMsg: fmt.Sprintf("watered %s", p.Name),
					sound:  "water",
					score:  t.Scoring.PerAction,
				}
			},
		},
		{
			kind: ActToggleLight,
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.LightOn = !p.LightOn
				state := "off"
				if p.LightOn {
					state = "on"
				}
				return actionResult{
					logMsg: fmt.Sprintf("turned the lamp %s for %s", state, p.Name),
					sound:  "click",
				}
			},
		},
		{
			kind:       ActClean,
			cooldown:   ms(t.Cooldowns.Clean),
			careScored: true,
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.addEnergy(t.Actions.CleanEnergy)
				p.addHealth(1)
				return actionResult{
					logMsg: fmt.Sprintf("cleaned the leaves of %s", p.Name),
					sound:  "success",
					score:  t.Scoring.PerAction,
				}
			},
		},
		{
			kind:       ActMist,
			cooldown:   ms(t.Cooldowns.Mist),
			careScored: true,
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.addWater(t.Actions.MistWater)
				p.addEnergy(t.Actions.MistEnergy)
				p.addHealth(0.5)
				return actionResult{
					logMsg: fmt.Sprintf("misted %s", p.Name),
					sound:  "water",
					score:  t.Scoring.PerMist,
				}
			},
		},
		{
			kind:     ActFertilize,
			cooldown: ms(t.Cooldowns.Fertilize),
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.addFertilizer(t.Actions.FertilizerBoost * g.multipliers().Get(MultFertilizer))
				p.addHealth(2)
				return actionResult{
					logMsg: fmt.Sprintf("fertilized %s", p.Name),
					sound:  "success",
					score:  t.Scoring.PerAction,
				}
			},
		},
		{
			kind:     ActPesticide,
			cooldown: ms(t.Cooldowns.Pesticide),
			pre: func(p *Plant) (string, bool) {
				if p.Pest <= 5 {
					return "has no pests worth treating", false
				}
				return "", true
			},
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.addPest(-t.Actions.PesticideEffect)
				return actionResult{
					logMsg: fmt.Sprintf("applied pesticide on %s", p.Name),
					sound:  "spray",
					score:  t.Scoring.PerAction,
				}
			},
		},
		{
			kind:     ActPrune,
			cooldown: ms(t.Cooldowns.Prune),
			pre: func(p *Plant) (string, bool) {
				if !p.GrowthStage.canPrune() {
					return "too young to be pruned", false
				}
				return "", true
			},
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.addEnergy(t.Actions.PruneBoost)
				p.addWater(5)
				p.addHealth(t.Actions.PruneBoost)
				return actionResult{
					logMsg: fmt.Sprintf("pruned %s", p.Name),
					sound:  "snip",
					score:  t.Scoring.PerAction,
				}
			},
		},
		{
			kind:     ActRepot,
			cooldown: ms(t.Cooldowns.Repot),
			pre: func(p *Plant) (string, bool) {
				if !p.GrowthStage.canRepot() {
					return "not mature enough to be repotted", false
				}
				if p.PotSize == PotLarge {
					return "already in the largest pot", false
				}
				return "", true
			},
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.PotSize = p.PotSize.bigger()
				p.addFertilizer(-20)
				p.addHealth(10)
				return actionResult{
					logMsg: fmt.Sprintf("repotted %s into a %s pot", p.Name, p.PotSize),
					sound:  "success",
					score:  t.Scoring.PerAction * 2,
				}
			},
		},
		{
			kind:     ActHarvest,
			cooldown: ms(t.Cooldowns.Harvest),
			pre: func(p *Plant) (string, bool) {
				if p.GrowthStage != StageFlowering {
					return "not flowering yet", false
				}
				return "", true
			},
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				// Harvesting takes a seed without touching the plant;
				// growth never regresses and the cooldown gates repeats.
				coins := int(math.Round(float64(t.Scoring.HarvestCoins) * g.multipliers().Get(MultHarvestCoins)))
				return actionResult{
					logMsg: fmt.Sprintf("harvested %s", p.Name),
					sound:  "harvest",
					score:  t.Scoring.PerHarvest,
					coins:  coins,
					seeds:  1,
				}
			},
		},
		{
			kind:       ActTalk,
			cooldown:   ms(t.Cooldowns.Talk),
			careScored: true,
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.addEnergy(t.Actions.TalkEnergy)
				p.addHealth(0.2)
				return actionResult{
					logMsg: fmt.Sprintf("talked kindly to %s", p.Name),
					sound:  "talk",
					score:  t.Scoring.PerAction,
				}
			},
		},
		{
			kind:     ActPlayMusic,
			cooldown: ms(t.Cooldowns.PlayMusic),
			pre: func(p *Plant) (string, bool) {
				if p.MusicPlaying {
					return "music is already playing", false
				}
				return "", true
			},
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				p.MusicPlaying = true
				p.MusicEnd = now.Add(ms(t.Actions.MusicDurationMs))
				return actionResult{
					logMsg: fmt.Sprintf("played music for %s", p.Name),
					sound:  "music",
					score:  t.Scoring.PerAction,
				}
			},
		},
		{
			kind:     ActObserve,
			cooldown: ms(t.Cooldowns.Observe),
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				return actionResult{
					logMsg: fmt.Sprintf("observed %s closely", p.Name),
					sound:  "success",
					score:  t.Scoring.PerObserve,
				}
			},
		},
		{
			kind:     ActCheckEnv,
			cooldown: ms(t.Cooldowns.CheckEnv),
			apply: func(g *Garden, p *Plant, actor string, now time.Time) actionResult {
				// Pure observation; the status only changes through drift.
				return actionResult{
					logMsg: fmt.Sprintf("checked the environment around %s (%s)", p.Name, p.EnvStatus),
					sound:  "click",
				}
			},
		},
	}

	table := make(map[ActionKind]actionSpec, len(specs))
	for _, s := range specs {
		table[s.kind] = s
	}
	return table
}

// multipliers returns the active event's scales, or nil when no event runs.
func (g *Garden) multipliers() Multipliers {
	if g.event == nil {
		return nil
	}
	return g.event.Multipliers
}

func (g *Garden) handleCommand(env CommandEnvelope) {
	s, led := g.sessionLedger(env.SessionID)
	if s == nil || led == nil {
		return
	}
	now := g.now()

	switch env.Cmd.Verb {
	case protocol.VerbWaterAll:
		g.waterAll(s, led, now)
	case protocol.VerbCreatePlant:
		g.createForPlayer(s, led, env.Cmd.Name, now)
	case protocol.VerbPlantSeed:
		g.plantSeed(s, led, env.Cmd.Name, now)
	case protocol.VerbBuyItem:
		g.buyItem(s, led, env.Cmd, now)
	case protocol.VerbSetUsername:
		g.setUsername(s, led, env.Cmd.Name)
	default:
		spec, ok := g.actions[ActionKind(env.Cmd.Verb)]
		if !ok {
			g.sendFeedback(s, false, protocol.ErrBadRequest, "unknown action", "error")
			return
		}
		g.resolvePlantAction(s, led, spec, env.Cmd.PlantID, now)
	}
}

// resolvePlantAction runs the fixed gate order for a per-plant verb:
// lookup, cooldown, wilt, precondition, then mutation and rewards.
func (g *Garden) resolvePlantAction(s *session, led *Ledger, spec actionSpec, plantID string, now time.Time) {
	p, ok := g.plants[plantID]
	if !ok {
		g.sendFeedback(s, false, protocol.ErrNotFound, "plant not found", "error")
		return
	}

	if spec.cooldown > 0 {
		if last := p.lastActionAt(spec.kind); !last.IsZero() {
			if remain := spec.cooldown - now.Sub(last); remain > 0 {
				g.sendFeedback(s, false, protocol.ErrCooldown,
					fmt.Sprintf("wait %ds before doing that again", int(remain.Seconds())+1), "")
				return
			}
		}
	}
	if p.Wilted() {
		g.sendFeedback(s, false, protocol.ErrWilted, fmt.Sprintf("%s has wilted", p.Name), "error")
		return
	}
	if spec.pre != nil {
		if msg, ok := spec.pre(p); !ok {
			g.sendFeedback(s, false, protocol.ErrPrecondition, fmt.Sprintf("%s: %s", p.Name, msg), "error")
			return
		}
	}

	res := spec.apply(g, p, s.Name, now)
	p.recordAction(spec.kind, s.Name, now)
	p.LastUpdate = now

	score := res.score
	if spec.careScored && score > 0 {
		score = int(math.Round(float64(score) * g.multipliers().Get(MultCareScore)))
	}
	g.addReward(led, score, res.coins, res.seeds)
	g.progressQuest(s, led, string(spec.kind), p.ID)
	g.addLog(s.Name, res.logMsg)
	g.sendFeedback(s, true, "", res.logMsg, res.sound)
	if spec.kind == ActObserve {
		g.sendTo(s, protocol.ObservationMsg{
			Type:            protocol.TypeObservation,
			ProtocolVersion: protocol.Version,
			PlantID:         p.ID,
			Text:            observationText(p),
		})
	}
	g.sendPlayerInfo(s)
	g.broadcastGarden()
}

func (g *Garden) waterAll(s *session, led *Ledger, now time.Time) {
	cd := ms(g.tune.Cooldowns.WaterAll)
	if !s.LastWaterAll.IsZero() && now.Sub(s.LastWaterAll) < cd {
		remain := cd - now.Sub(s.LastWaterAll)
		g.sendFeedback(s, false, protocol.ErrCooldown,
			fmt.Sprintf("wait %ds before watering everything again", int(remain.Seconds())+1), "")
		return
	}
	watered := 0
	for _, p := range g.plants {
		if p.Wilted() || p.Water >= 95 {
			continue
		}
		p.addWater(g.tune.Actions.WaterAllBoost)
		p.LastUpdate = now
		watered++
	}
	if watered == 0 {
		g.sendFeedback(s, false, protocol.ErrPrecondition, "every plant is already well watered", "")
		return
	}
	s.LastWaterAll = now

	g.addReward(led, g.tune.Scoring.PerAction*watered, 0, 0)
	g.progressQuest(s, led, protocol.VerbWaterAll, "")
	g.addLog(s.Name, fmt.Sprintf("watered the whole garden (%d plants)", watered))
	g.sendFeedback(s, true, "", fmt.Sprintf("watered %d plants", watered), "water")
	g.sendPlayerInfo(s)
	g.broadcastGarden()
}

func (g *Garden) createForPlayer(s *session, led *Ledger, name string, now time.Time) {
	cd := ms(g.tune.Cooldowns.Create)
	if !s.LastCreate.IsZero() && now.Sub(s.LastCreate) < cd {
		remain := cd - now.Sub(s.LastCreate)
		g.sendFeedback(s, false, protocol.ErrCooldown,
			fmt.Sprintf("wait %ds before creating another plant", int(remain.Seconds())+1), "")
		return
	}
	p, err := g.createPlant(led.PlayerID, led.Name, name)
	if err != nil {
		g.sendFeedback(s, false, protocol.ErrCapacity, "the garden is full", "error")
		return
	}
	s.LastCreate = now
	g.addReward(led, g.tune.Scoring.PerAction, 0, 0)
	g.sendFeedback(s, true, "", fmt.Sprintf("%s joins the garden", p.Name), "success")
	g.sendPlayerInfo(s)
}

func (g *Garden) plantSeed(s *session, led *Ledger, name string, now time.Time) {
	cd := ms(g.tune.Cooldowns.PlantSeed)
	if !s.LastPlantSeed.IsZero() && now.Sub(s.LastPlantSeed) < cd {
		remain := cd - now.Sub(s.LastPlantSeed)
		g.sendFeedback(s, false, protocol.ErrCooldown,
			fmt.Sprintf("wait %ds before planting another seed", int(remain.Seconds())+1), "")
		return
	}
	if led.Seeds <= 0 {
		g.sendFeedback(s, false, protocol.ErrNoFunds, "no seeds left", "error")
		return
	}
	led.Seeds--
	p, err := g.createPlant(led.PlayerID, led.Name, name)
	if err != nil {
		// Seed is refunded when the garden rejects the new entity.
		led.Seeds++
		g.sendFeedback(s, false, protocol.ErrCapacity, "the garden is full", "error")
		g.sendPlayerInfo(s)
		return
	}
	s.LastPlantSeed = now
	g.addReward(led, g.tune.Scoring.PerPlantSeed, 0, 0)
	g.sendFeedback(s, true, "", fmt.Sprintf("planted a seed, %s sprouts soon", p.Name), "success")
	g.sendPlayerInfo(s)
}

func (g *Garden) setUsername(s *session, led *Ledger, name string) {
	name = sanitizeName(name, 20)
	if name == "" {
		g.sendFeedback(s, false, protocol.ErrBadRequest, "empty name", "error")
		return
	}
	old := led.Name
	led.Name = name
	s.Name = name
	g.addLog("System", fmt.Sprintf("%s is now known as %s", old, name))
	g.sendFeedback(s, true, "", fmt.Sprintf("name changed to %s", name), "success")
	g.sendPlayerInfo(s)
	g.broadcastLeaderboard()
}
