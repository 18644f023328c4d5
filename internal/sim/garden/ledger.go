package garden

import "sort"

// addReward credits a ledger at face value. Event scaling happens at the
// reward computation sites, never here.
func (g *Garden) addReward(led *Ledger, score, coins, seeds int) {
	if led == nil {
		return
	}
	led.Score += score
	led.Coins += coins
	led.Seeds += seeds
	if g.index != nil {
		g.index.UpsertLedger(led.PlayerID, led.Name, led.Score, led.Coins, led.Seeds)
	}
}

// topLedgers returns the n highest-scoring ledgers; ties break on name then
// id so the ordering is stable across refreshes.
func (g *Garden) topLedgers(n int) []*Ledger {
	all := make([]*Ledger, 0, len(g.ledgers))
	for _, l := range g.ledgers {
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].PlayerID < all[j].PlayerID
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}
