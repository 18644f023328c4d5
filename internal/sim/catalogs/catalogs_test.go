package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Configs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Quests.All) == 0 || len(c.Events.All) == 0 || len(c.Shop.All) == 0 {
		t.Fatalf("empty catalog: %+v", c)
	}
	if c.Quests.Digest == "" || c.Events.Digest == "" || c.Shop.Digest == "" {
		t.Fatal("missing digest")
	}
	q, ok := c.Quests.ByID["water3"]
	if !ok || !q.UniqueTarget || q.Target != 3 {
		t.Fatalf("water3 quest: %+v", q)
	}
	ev, ok := c.Events.ByID["harvest_bounty"]
	if !ok || ev.Multipliers["harvest_coins"] != 2 {
		t.Fatalf("harvest_bounty event: %+v", ev)
	}
	seed, ok := c.Shop.ByID["seed_basic"]
	if !ok || seed.Kind != ItemSeed || seed.Price != 100 {
		t.Fatalf("seed_basic item: %+v", seed)
	}
	if pot := c.Shop.ByID["pot_red"]; pot.Kind != ItemCosmetic || pot.Value == "" {
		t.Fatalf("pot_red item: %+v", pot)
	}
}

func TestLoad_RejectsBadKind(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("quests.yaml", "quests:\n  - quest_id: q1\n    verb: water\n    target: 1\n")
	write("events.yaml", "events:\n  - event_id: e1\n    duration_min: 5\n")
	write("shop.yaml", "items:\n  - item_id: x\n    price: 1\n    kind: weapon\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for unknown item kind")
	}
}
