package garden

import (
	"fmt"
	"time"

	"github.com/JacquesGariepy/plant-game/internal/protocol"
	"github.com/JacquesGariepy/plant-game/internal/sim/catalogs"
)

// buyItem deducts the price first and refunds whenever the effect cannot be
// applied, so coins never vanish into nothing.
func (g *Garden) buyItem(s *session, led *Ledger, cmd protocol.CommandMsg, now time.Time) {
	item, ok := g.cats.Shop.ByID[cmd.ItemID]
	if !ok {
		g.sendFeedback(s, false, protocol.ErrNotFound, "unknown item", "error")
		return
	}
	if led.Coins < item.Price {
		g.sendFeedback(s, false, protocol.ErrNoFunds,
			fmt.Sprintf("%s costs %d coins", item.Name, item.Price), "error")
		return
	}
	led.Coins -= item.Price

	refund := func(code, msg string) {
		led.Coins += item.Price
		g.sendFeedback(s, false, code, msg, "error")
		g.sendPlayerInfo(s)
	}

	switch item.Kind {
	case catalogs.ItemSeed:
		p, err := g.createPlant(led.PlayerID, led.Name, cmd.Name)
		if err != nil {
			refund(protocol.ErrCapacity, "the garden is full")
			return
		}
		g.addLog(s.Name, fmt.Sprintf("bought a seed and planted %s", p.Name))
		g.sendFeedback(s, true, "", fmt.Sprintf("%s takes root", p.Name), "coin")

	case catalogs.ItemCosmetic:
		p, ok := g.plants[cmd.PlantID]
		if !ok {
			refund(protocol.ErrNotFound, "plant not found")
			return
		}
		if item.Value == "" {
			refund(protocol.ErrInternal, "item has no color")
			return
		}
		p.PotColor = item.Value
		g.addLog(s.Name, fmt.Sprintf("gave %s a new pot (%s)", p.Name, item.Name))
		g.sendFeedback(s, true, "", fmt.Sprintf("%s looks great", p.Name), "coin")
		g.broadcastGarden()

	case catalogs.ItemBoost, catalogs.ItemConsumable:
		p, ok := g.plants[cmd.PlantID]
		if !ok {
			refund(protocol.ErrNotFound, "plant not found")
			return
		}
		if p.Wilted() {
			refund(protocol.ErrWilted, fmt.Sprintf("%s has wilted", p.Name))
			return
		}
		switch item.Effect {
		case catalogs.EffectFertilizer:
			p.addFertilizer(item.Amount)
		case catalogs.EffectPesticide:
			p.addPest(-item.Amount)
		default:
			refund(protocol.ErrInternal, "item has no effect")
			return
		}
		p.LastUpdate = now
		g.addLog(s.Name, fmt.Sprintf("used %s on %s", item.Name, p.Name))
		g.sendFeedback(s, true, "", fmt.Sprintf("applied %s to %s", item.Name, p.Name), "coin")
		g.broadcastGarden()

	default:
		refund(protocol.ErrInternal, "unknown item kind")
		return
	}

	g.sendPlayerInfo(s)
}
