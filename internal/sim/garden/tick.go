package garden

import (
	"fmt"
	"math"
	"time"
)

// step advances every plant by the wall-clock time elapsed since its last
// update, then runs session-side timers (quest reassignment) and the
// periodic snapshot.
func (g *Garden) step(now time.Time) {
	changed := false
	for _, p := range g.plants {
		if g.advancePlant(p, now) {
			changed = true
		}
	}
	if changed {
		g.broadcastGarden()
	}

	for _, s := range g.sessions {
		if !s.QuestReassignAt.IsZero() && !now.Before(s.QuestReassignAt) {
			s.QuestReassignAt = time.Time{}
			g.assignQuest(s)
			g.sendQuest(s)
		}
	}

	g.maybeSnapshot(now)
}

// advancePlant applies elapsed-time drift, health adjustment, environment
// drift and growth to one plant. Reports whether any observable field moved.
func (g *Garden) advancePlant(p *Plant, now time.Time) bool {
	elapsed := now.Sub(p.LastUpdate)
	if elapsed <= 0 {
		return false
	}
	hours := elapsed.Hours()
	before := *p
	c := p.Characteristics
	r := g.tune.Rates
	mult := g.multipliers()

	if p.Wilted() {
		// Wilted plants are frozen; only the clock moves.
		p.LastUpdate = now
		return false
	}

	// Health reads the pre-drift levels; a plant that wilts here never
	// drifts this interval.
	g.adjustHealth(p, hours)
	if p.Wilted() {
		p.MusicPlaying = false
		p.GrowthProgress = 0
		p.LastUpdate = now
		g.addLog("System", fmt.Sprintf("%s has wilted...", p.Name))
		return true
	}

	// Music expires on its own.
	if p.MusicPlaying && now.After(p.MusicEnd) {
		p.MusicPlaying = false
	}

	// Resource drift.
	p.addWater(-r.WaterDepletion * hours * c.WaterNeedFactor / c.LifespanFactor)

	envFactor := 1.0
	if p.EnvStatus.adverse() {
		envFactor = 0.7
	}
	if p.LightOn {
		pestDrag := math.Max(0.3, 1-p.Pest/150)
		p.addEnergy(r.EnergyGain * hours * c.LightNeedFactor * pestDrag * envFactor)
		if p.Energy > 95 && c.LightTolerance.PenaltyFactor() > 1 {
			// Low light tolerance burns under constant full light.
			p.addWater(-2 * hours)
		}
	} else {
		p.addEnergy(-r.EnergyDepletion * hours * c.LightNeedFactor * envFactor * c.LightTolerance.PenaltyFactor())
	}

	p.addFertilizer(-r.FertDepletion * hours * c.FertilizerNeedFactor)

	// Pest pressure follows the water/energy balance: scarce resources
	// invite pests, abundance drives them off. The event resistance
	// multiplier accelerates the decrease only.
	var pest float64
	switch {
	case p.Water < 40 || p.Energy < 40:
		pest = r.PestIncrease * hours * 1.5 / c.PestResistFactor
	case p.Water > 80 && p.Energy > 80:
		pest = -r.PestDecrease * hours * c.PestResistFactor * mult.Get(MultPestResist)
	default:
		pest = r.PestIncrease * hours * 0.5 / c.PestResistFactor
	}
	switch p.EnvStatus {
	case EnvInfested:
		pest *= 2
	case EnvOptimal:
		pest *= 0.5
	}
	p.addPest(pest)

	g.maybeShiftEnv(p, hours)
	g.advanceGrowth(p, now)

	p.LastUpdate = now
	return before.Water != p.Water || before.Energy != p.Energy ||
		before.Fertilizer != p.Fertilizer || before.Pest != p.Pest ||
		before.Health != p.Health || before.EnvStatus != p.EnvStatus ||
		before.GrowthStage != p.GrowthStage || before.GrowthProgress != p.GrowthProgress ||
		before.MusicPlaying != p.MusicPlaying
}

// adjustHealth accumulates every penalty that applies this interval, then
// either decays or regenerates.
func (g *Garden) adjustHealth(p *Plant, hours float64) {
	c := p.Characteristics
	r := g.tune.Rates

	penalty := 0.0
	if p.Water < 15 {
		penalty += r.HealthLoss * c.WaterTolerance.PenaltyFactor()
	} else if p.Water > 98 {
		penalty += r.HealthLoss * 0.5 * c.WaterTolerance.PenaltyFactor()
	}
	if p.Energy < 15 {
		penalty += r.HealthLoss * c.LightTolerance.PenaltyFactor()
	}
	switch {
	case p.Pest > 60:
		penalty += r.HealthLoss * 1.5 / c.PestResistFactor
	case p.Pest > 30:
		penalty += r.HealthLoss * 0.8 / c.PestResistFactor
	}
	if p.EnvStatus.adverse() {
		penalty += r.HealthLoss * 0.5 / c.EnvResistFactor
	}
	neglected := p.Water < 20 || p.Energy < 20 || p.Health < 50
	if p.GrowthStage.matureOrLater() && neglected {
		penalty += r.AgingHealthLoss / c.LifespanFactor
	}

	if penalty > 0 {
		p.addHealth(-penalty * hours)
		return
	}
	if p.Water > 50 && p.Energy > 50 && p.Pest < 20 && p.Fertilizer > 5 {
		p.addHealth(r.HealthRegen * hours * c.LifespanFactor)
	}
}

// maybeShiftEnv re-rolls the environment with a probability proportional to
// elapsed time and diluted by population, so a crowded garden does not churn.
func (g *Garden) maybeShiftEnv(p *Plant, hours float64) {
	prob := g.tune.Rates.EnvChangePerHour * hours / float64(maxInt(1, len(g.plants)))
	if prob > 1 {
		prob = 1
	}
	if g.rng.Float64() >= prob {
		return
	}
	infestChance := math.Min(0.5, p.Pest/150)
	if g.rng.Float64() < infestChance {
		p.EnvStatus = EnvInfested
		return
	}
	p.EnvStatus = nonInfestedStatuses[g.rng.Intn(len(nonInfestedStatuses))]
}

// advanceGrowth recomputes effective age from the birth timestamp and walks
// the stage ladder. Stage transitions award the creator.
func (g *Garden) advanceGrowth(p *Plant, now time.Time) {
	if p.Health <= 50 {
		return
	}
	c := p.Characteristics
	ageHours := now.Sub(p.Born).Hours()

	potFactor := 1.0
	if p.PotSize == PotSmall && p.GrowthStage.canPrune() {
		potFactor = 0.5
	} else if p.PotSize != PotLarge && p.GrowthStage.matureOrLater() {
		potFactor = 0.5
	}
	healthFactor := 1.0
	if p.Health < 80 {
		healthFactor = 0.9
	}
	eff := ageHours * c.GrowthRateFactor * g.multipliers().Get(MultGrowth) *
		(1 + p.Fertilizer/120) * potFactor * healthFactor

	for !p.GrowthStage.terminal() {
		threshold := g.stageThreshold(p.GrowthStage.next())
		if eff < threshold {
			prev := g.stageThreshold(p.GrowthStage)
			span := threshold - prev
			if span <= 0 {
				p.GrowthProgress = 0
				return
			}
			p.GrowthProgress = clamp01To100((eff - prev) / span * 100)
			return
		}
		next := p.GrowthStage.next()
		p.GrowthStage = next
		p.GrowthProgress = 0
		g.addLog("System", fmt.Sprintf("%s grew into the %s stage!", p.Name, next))
		g.rewardCreator(p, next)
	}
	p.GrowthProgress = 100
}

// stageThreshold returns the cumulative effective-age hours needed to reach
// the given stage.
func (g *Garden) stageThreshold(s GrowthStage) float64 {
	gr := g.tune.Growth
	switch s {
	case StageSeed:
		return 0
	case StageSprout:
		return gr.SproutHours
	case StageYoung:
		return gr.YoungHours
	case StageMature:
		return gr.MatureHours
	case StageFlowering:
		return gr.FloweringHours
	}
	return math.Inf(1)
}

// rewardCreator credits the plant's creator when a stage is reached. System
// plants earn nothing; offline creators accrue on their ledger silently.
func (g *Garden) rewardCreator(p *Plant, stage GrowthStage) {
	if p.CreatorID == SystemCreatorID {
		return
	}
	led := g.ledgers[p.CreatorID]
	if led == nil {
		return
	}
	pts := g.tune.Scoring.PerGrowth
	if stage == StageFlowering {
		pts = g.tune.Scoring.PerFlower
	}
	g.addReward(led, pts, 0, 0)
	for _, s := range g.sessions {
		if s.PlayerID == led.PlayerID {
			g.sendPlayerInfo(s)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
