// Package catalogs loads the fixed quest, event and shop definitions from a
// config directory and exposes content digests for the handshake.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Catalogs struct {
	Quests QuestCatalog
	Events EventCatalog
	Shop   ShopCatalog
}

type QuestCatalog struct {
	All    []QuestDef
	ByID   map[string]QuestDef
	Digest string
}

type QuestDef struct {
	QuestID     string `yaml:"quest_id"`
	Description string `yaml:"description"`
	Verb        string `yaml:"verb"`
	Target      int    `yaml:"target"`
	// UniqueTarget counts distinct plant ids instead of raw action count.
	UniqueTarget bool `yaml:"unique_target"`
	RewardScore  int  `yaml:"reward_score"`
	RewardCoins  int  `yaml:"reward_coins"`
}

type EventCatalog struct {
	All    []EventDef
	ByID   map[string]EventDef
	Digest string
}

type EventDef struct {
	EventID     string `yaml:"event_id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	DurationMin int    `yaml:"duration_min"`
	// Multipliers maps effect-category names (fertilizer, growth,
	// pest_resist, harvest_coins, care_score) to scale factors.
	Multipliers map[string]float64 `yaml:"multipliers"`
}

// Shop item kinds.
const (
	ItemSeed       = "seed"
	ItemBoost      = "boost"
	ItemConsumable = "consumable"
	ItemCosmetic   = "cosmetic"
)

// Item effect targets for boost/consumable kinds.
const (
	EffectFertilizer = "fertilizer"
	EffectPesticide  = "pesticide"
)

type ShopCatalog struct {
	All    []ShopItemDef
	ByID   map[string]ShopItemDef
	Digest string
}

type ShopItemDef struct {
	ItemID      string  `yaml:"item_id"`
	Name        string  `yaml:"name"`
	Price       int     `yaml:"price"`
	Kind        string  `yaml:"kind"`
	Effect      string  `yaml:"effect,omitempty"`
	Amount      float64 `yaml:"amount,omitempty"`
	Value       string  `yaml:"value,omitempty"` // cosmetic pot color
	Description string  `yaml:"description,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	c := &Catalogs{}

	var quests struct {
		Quests []QuestDef `yaml:"quests"`
	}
	digest, err := loadYAML(filepath.Join(configDir, "quests.yaml"), &quests)
	if err != nil {
		return nil, err
	}
	c.Quests = QuestCatalog{All: quests.Quests, ByID: map[string]QuestDef{}, Digest: digest}
	for _, q := range quests.Quests {
		if q.QuestID == "" || q.Target <= 0 || q.Verb == "" {
			return nil, fmt.Errorf("quests.yaml: invalid quest %+v", q)
		}
		if _, dup := c.Quests.ByID[q.QuestID]; dup {
			return nil, fmt.Errorf("quests.yaml: duplicate quest_id %s", q.QuestID)
		}
		c.Quests.ByID[q.QuestID] = q
	}

	var events struct {
		Events []EventDef `yaml:"events"`
	}
	digest, err = loadYAML(filepath.Join(configDir, "events.yaml"), &events)
	if err != nil {
		return nil, err
	}
	c.Events = EventCatalog{All: events.Events, ByID: map[string]EventDef{}, Digest: digest}
	for _, e := range events.Events {
		if e.EventID == "" || e.DurationMin <= 0 {
			return nil, fmt.Errorf("events.yaml: invalid event %+v", e)
		}
		if _, dup := c.Events.ByID[e.EventID]; dup {
			return nil, fmt.Errorf("events.yaml: duplicate event_id %s", e.EventID)
		}
		c.Events.ByID[e.EventID] = e
	}

	var shop struct {
		Items []ShopItemDef `yaml:"items"`
	}
	digest, err = loadYAML(filepath.Join(configDir, "shop.yaml"), &shop)
	if err != nil {
		return nil, err
	}
	c.Shop = ShopCatalog{All: shop.Items, ByID: map[string]ShopItemDef{}, Digest: digest}
	for _, it := range shop.Items {
		if it.ItemID == "" || it.Price < 0 {
			return nil, fmt.Errorf("shop.yaml: invalid item %+v", it)
		}
		switch it.Kind {
		case ItemSeed, ItemBoost, ItemConsumable, ItemCosmetic:
		default:
			return nil, fmt.Errorf("shop.yaml: item %s: unknown kind %q", it.ItemID, it.Kind)
		}
		if _, dup := c.Shop.ByID[it.ItemID]; dup {
			return nil, fmt.Errorf("shop.yaml: duplicate item_id %s", it.ItemID)
		}
		c.Shop.ByID[it.ItemID] = it
	}

	return c, nil
}

func loadYAML(path string, v any) (digest string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
