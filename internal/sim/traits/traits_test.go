package traits

import (
	"math/rand"
	"testing"
)

func TestGenerate_Ranges(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		c := Generate(rng)
		check := func(name string, v, lo, hi float64) {
			t.Helper()
			if v < lo || v > hi {
				t.Fatalf("%s=%v outside [%v,%v]", name, v, lo, hi)
			}
		}
		check("water_need", c.WaterNeedFactor, 0.8, 1.2)
		check("light_need", c.LightNeedFactor, 0.8, 1.2)
		check("fertilizer_need", c.FertilizerNeedFactor, 0.7, 1.3)
		check("growth_rate", c.GrowthRateFactor, 0.9, 1.1)
		check("pest_resist", c.PestResistFactor, 0.8, 1.2)
		check("env_resist", c.EnvResistFactor, 0.8, 1.2)
		check("lifespan", c.LifespanFactor, 0.9, 1.1)
		if !IsValidTolerance(c.WaterTolerance) || !IsValidTolerance(c.LightTolerance) {
			t.Fatalf("invalid tolerance: %+v", c)
		}
		if c.BaseColor == "" || c.LeafShape == "" || c.FlowerColor == "" {
			t.Fatalf("missing cosmetic trait: %+v", c)
		}
		if c.RareTrait != "" && DescribeRareTrait(c.RareTrait) == "" {
			t.Fatalf("rare trait %q not in catalog", c.RareTrait)
		}
	}
}

func TestGenerate_RareTraitIsRare(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rare := 0
	const n = 10000
	for i := 0; i < n; i++ {
		if Generate(rng).RareTrait != "" {
			rare++
		}
	}
	// Expect ~3%; allow generous slack for the fixed seed.
	if rare < n/100 || rare > n/10 {
		t.Fatalf("rare trait count %d out of expected band for n=%d", rare, n)
	}
}

func TestTolerancePenaltyFactor(t *testing.T) {
	if got := ToleranceHigh.PenaltyFactor(); got != 0.7 {
		t.Fatalf("high: got %v", got)
	}
	if got := ToleranceLow.PenaltyFactor(); got != 1.3 {
		t.Fatalf("low: got %v", got)
	}
	if got := ToleranceMedium.PenaltyFactor(); got != 1 {
		t.Fatalf("medium: got %v", got)
	}
}

func TestComplete_Backfill(t *testing.T) {
	c := Complete(Characteristics{})
	if c.WaterNeedFactor != 1 || c.LifespanFactor != 1 {
		t.Fatalf("factors not defaulted: %+v", c)
	}
	if c.WaterTolerance != ToleranceMedium || c.LightTolerance != ToleranceMedium {
		t.Fatalf("tolerances not defaulted: %+v", c)
	}
	if c.BaseColor == "" || c.LeafShape == "" || c.FlowerColor == "" {
		t.Fatalf("cosmetics not defaulted: %+v", c)
	}
}
