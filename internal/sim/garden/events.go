package garden

import (
	"fmt"
	"time"
)

// checkEvent expires a finished event or, when none runs, rolls for a new
// one. Called from the event-check ticker only.
func (g *Garden) checkEvent(now time.Time) {
	if g.event != nil {
		if now.Before(g.event.End) {
			return
		}
		g.addLog("System", fmt.Sprintf("the event \"%s\" has ended.", g.event.Name))
		g.event = nil
		g.broadcastEvent()
		g.broadcastLogs()
		return
	}
	if g.rng.Float64() < g.eventChance {
		g.startRandomEvent(now)
	}
}

func (g *Garden) startRandomEvent(now time.Time) {
	all := g.cats.Events.All
	if len(all) == 0 {
		return
	}
	def := all[g.rng.Intn(len(all))]
	g.event = &activeEvent{
		EventID:     def.EventID,
		Name:        def.Name,
		Description: def.Description,
		End:         now.Add(time.Duration(def.DurationMin) * time.Minute),
		Multipliers: Multipliers(def.Multipliers),
	}
	g.addLog("System", fmt.Sprintf("event started: %s! %s", def.Name, def.Description))
	g.broadcastEvent()
	g.broadcastLogs()
}
