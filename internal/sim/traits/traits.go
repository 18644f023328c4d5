// Package traits generates the immutable characteristic vector assigned to
// each plant at creation time.
package traits

import "math/rand"

type Tolerance string

const (
	ToleranceLow    Tolerance = "LOW"
	ToleranceMedium Tolerance = "MEDIUM"
	ToleranceHigh   Tolerance = "HIGH"
)

// PenaltyFactor maps a tolerance onto the multiplier applied to resource
// extreme penalties: high tolerance softens them, low tolerance worsens them.
func (t Tolerance) PenaltyFactor() float64 {
	switch t {
	case ToleranceHigh:
		return 0.7
	case ToleranceLow:
		return 1.3
	default:
		return 1
	}
}

func IsValidTolerance(t Tolerance) bool {
	switch t {
	case ToleranceLow, ToleranceMedium, ToleranceHigh:
		return true
	}
	return false
}

// Characteristics is immutable after creation. Every factor is a positive
// multiplier near 1 modulating the tick engine's rate computations.
type Characteristics struct {
	WaterNeedFactor      float64 `json:"water_need_factor"`
	LightNeedFactor      float64 `json:"light_need_factor"`
	FertilizerNeedFactor float64 `json:"fertilizer_need_factor"`
	GrowthRateFactor     float64 `json:"growth_rate_factor"`
	PestResistFactor     float64 `json:"pest_resist_factor"`
	EnvResistFactor      float64 `json:"env_resist_factor"`
	LifespanFactor       float64 `json:"lifespan_factor"`

	WaterTolerance Tolerance `json:"water_tolerance"`
	LightTolerance Tolerance `json:"light_tolerance"`

	BaseColor   string `json:"base_color"`
	LeafShape   string `json:"leaf_shape"`
	FlowerColor string `json:"flower_color"`

	RareTrait string `json:"rare_trait,omitempty"`
}

var (
	PlantColors  = []string{"#2e7d32", "#388e3c", "#4caf50", "#66bb6a", "#81c784", "#a5d6a7"}
	LeafShapes   = []string{"Oval", "Pointed", "Serrated", "Lobed", "Heart"}
	FlowerColors = []string{"#e91e63", "#9c27b0", "#673ab7", "#3f51b5", "#ffffff", "#ffeb3b", "#ff9800"}
	tolerances   = []Tolerance{ToleranceLow, ToleranceMedium, ToleranceHigh}
)

type RareTrait struct {
	Name        string
	Description string
}

var RareTraits = []RareTrait{
	{Name: "Shimmering Leaves", Description: "Its leaves glitter in the light."},
	{Name: "Night Glow", Description: "Emits a soft glow after dark."},
	{Name: "Enchanting Scent", Description: "Gives off a pleasant perfume."},
	{Name: "Murmuring Melody", Description: "Seems to hum quietly."},
	{Name: "Precious Nectar", Description: "Produces a rare nectar."},
}

const RareTraitChance = 0.03

// DescribeRareTrait returns the catalog description for a trait name, or "".
func DescribeRareTrait(name string) string {
	for _, rt := range RareTraits {
		if rt.Name == name {
			return rt.Description
		}
	}
	return ""
}

// Generate draws a fresh characteristic vector. Pure randomness against the
// supplied source; no other side effects.
func Generate(rng *rand.Rand) Characteristics {
	c := Characteristics{
		WaterNeedFactor:      inRange(rng, 0.8, 1.2),
		LightNeedFactor:      inRange(rng, 0.8, 1.2),
		FertilizerNeedFactor: inRange(rng, 0.7, 1.3),
		GrowthRateFactor:     inRange(rng, 0.9, 1.1),
		PestResistFactor:     inRange(rng, 0.8, 1.2),
		EnvResistFactor:      inRange(rng, 0.8, 1.2),
		LifespanFactor:       inRange(rng, 0.9, 1.1),
		WaterTolerance:       tolerances[rng.Intn(len(tolerances))],
		LightTolerance:       tolerances[rng.Intn(len(tolerances))],
		BaseColor:            PlantColors[rng.Intn(len(PlantColors))],
		LeafShape:            LeafShapes[rng.Intn(len(LeafShapes))],
		FlowerColor:          FlowerColors[rng.Intn(len(FlowerColors))],
	}
	if rng.Float64() < RareTraitChance {
		c.RareTrait = RareTraits[rng.Intn(len(RareTraits))].Name
	}
	return c
}

// Complete backfills zero-valued fields with neutral defaults. Used when
// resuming from a snapshot written by an older version.
func Complete(c Characteristics) Characteristics {
	def := func(v *float64) {
		if *v <= 0 {
			*v = 1
		}
	}
	def(&c.WaterNeedFactor)
	def(&c.LightNeedFactor)
	def(&c.FertilizerNeedFactor)
	def(&c.GrowthRateFactor)
	def(&c.PestResistFactor)
	def(&c.EnvResistFactor)
	def(&c.LifespanFactor)
	if !IsValidTolerance(c.WaterTolerance) {
		c.WaterTolerance = ToleranceMedium
	}
	if !IsValidTolerance(c.LightTolerance) {
		c.LightTolerance = ToleranceMedium
	}
	if c.BaseColor == "" {
		c.BaseColor = PlantColors[0]
	}
	if c.LeafShape == "" {
		c.LeafShape = LeafShapes[0]
	}
	if c.FlowerColor == "" {
		c.FlowerColor = FlowerColors[0]
	}
	return c
}

func inRange(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
