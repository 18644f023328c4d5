package garden

import (
	"fmt"
	"strings"

	"github.com/JacquesGariepy/plant-game/internal/sim/traits"
)

// observationText composes the observe verb's flavor report from the plant's
// current vitals and its immutable characteristics.
func observationText(p *Plant) string {
	c := p.Characteristics
	var b strings.Builder

	fmt.Fprintf(&b, "%s is at the %s stage. ", p.Name, strings.ToLower(string(p.GrowthStage)))

	switch {
	case p.Health > 80:
		b.WriteString("It looks vigorous and healthy. ")
	case p.Health > 50:
		b.WriteString("It seems to be doing fine. ")
	case p.Health > 20:
		b.WriteString("It looks a bit weak. ")
	default:
		b.WriteString("It is in poor shape. ")
	}

	if p.Water < 30 {
		b.WriteString("The soil feels dry. ")
	} else if p.Water > 90 {
		b.WriteString("The soil is soaked. ")
	}
	if p.Energy < 30 {
		b.WriteString("It is starved for light. ")
	}
	if p.Pest > 40 {
		b.WriteString("Small insects crawl on its leaves. ")
	}

	if c.WaterNeedFactor > 1.1 {
		b.WriteString("This variety is notably thirsty. ")
	} else if c.WaterNeedFactor < 0.9 {
		b.WriteString("This variety needs little water. ")
	}
	if c.GrowthRateFactor > 1.05 {
		b.WriteString("It grows unusually fast. ")
	}
	fmt.Fprintf(&b, "Its %s leaves carry a %s hue.", strings.ToLower(c.LeafShape), c.BaseColor)

	if c.RareTrait != "" {
		if desc := traits.DescribeRareTrait(c.RareTrait); desc != "" {
			fmt.Fprintf(&b, " Rare trait: %s. %s", c.RareTrait, desc)
		} else {
			fmt.Fprintf(&b, " Rare trait: %s.", c.RareTrait)
		}
	}
	return b.String()
}
