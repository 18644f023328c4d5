package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name"`
	// ResumeToken reattaches a persistent ledger identity across reconnects.
	ResumeToken string `json:"resume_token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	PlayerID        string         `json:"player_id"`
	PlayerName      string         `json:"player_name"`
	ResumeToken     string         `json:"resume_token"`
	GardenParams    GardenParams   `json:"garden_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type GardenParams struct {
	TickIntervalMs int `json:"tick_interval_ms"`
	MaxPlants      int `json:"max_plants"`
	MaxLogEntries  int `json:"max_log_entries"`
}

type CatalogDigests struct {
	QuestsDigest string `json:"quests_digest"`
	EventsDigest string `json:"events_digest"`
	ShopDigest   string `json:"shop_digest"`
	TuningDigest string `json:"tuning_digest,omitempty"`
}

// Command verbs (client -> server COMMAND message).
const (
	VerbWater       = "water"
	VerbToggleLight = "toggle_light"
	VerbClean       = "clean"
	VerbMist        = "mist"
	VerbFertilize   = "fertilize"
	VerbPesticide   = "pesticide"
	VerbPrune       = "prune"
	VerbRepot       = "repot"
	VerbHarvest     = "harvest"
	VerbTalk        = "talk"
	VerbPlayMusic   = "play_music"
	VerbObserve     = "observe"
	VerbCheckEnv    = "check_env"
	VerbWaterAll    = "water_all"
	VerbCreatePlant = "create_plant"
	VerbPlantSeed   = "plant_seed"
	VerbBuyItem     = "buy_item"
	VerbSetUsername = "set_username"
)

// COMMAND (client -> server)
type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Verb            string `json:"verb"`
	PlantID         string `json:"plant_id,omitempty"`
	Name            string `json:"name,omitempty"`
	ItemID          string `json:"item_id,omitempty"`
}

// GARDEN (server -> client): full plant collection snapshot.
type GardenMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Plants          []PlantObs `json:"plants"`
}

type PlantObs struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CreatorName string `json:"creator_name"`

	Health          float64 `json:"health"`
	WaterLevel      float64 `json:"water_level"`
	EnergyLevel     float64 `json:"energy_level"`
	FertilizerLevel float64 `json:"fertilizer_level"`
	PestLevel       float64 `json:"pest_level"`

	GrowthStage    string  `json:"growth_stage"`
	GrowthProgress float64 `json:"growth_progress"`
	PotSize        string  `json:"pot_size"`
	PotColor       string  `json:"pot_color"`
	EnvStatus      string  `json:"env_status"`
	LightOn        bool    `json:"light_on"`
	MusicPlaying   bool    `json:"music_playing"`
	Wilted         bool    `json:"wilted"`

	BaseColor   string `json:"base_color"`
	LeafShape   string `json:"leaf_shape"`
	FlowerColor string `json:"flower_color"`
	RareTrait   string `json:"rare_trait,omitempty"`
}

// LOGS (server -> client): bounded recent care-log window, newest first.
type LogsMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Entries         []LogItem `json:"entries"`
}

type LogItem struct {
	Actor    string `json:"actor"`
	Message  string `json:"message"`
	UnixMill int64  `json:"ts_ms"`
}

// LEADERBOARD (server -> client): top-N players by score.
type LeaderboardMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	Rows            []LeaderboardItem `json:"rows"`
}

type LeaderboardItem struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Coins    int    `json:"coins"`
	Seeds    int    `json:"seeds"`
}

// PLAYER (server -> one client): the acting player's ledger snapshot.
type PlayerMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"`
	Score           int    `json:"score"`
	Coins           int    `json:"coins"`
	Seeds           int    `json:"seeds"`
}

// QUEST (server -> one client): current quest state, nil-equivalent when none.
type QuestMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	QuestID         string `json:"quest_id,omitempty"`
	Description     string `json:"description,omitempty"`
	Verb            string `json:"verb,omitempty"`
	Progress        int    `json:"progress"`
	Target          int    `json:"target"`
	Completed       bool   `json:"completed"`
}

// EVENT (server -> client): the active global event, or absence thereof.
type EventMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	Active          bool               `json:"active"`
	EventID         string             `json:"event_id,omitempty"`
	Name            string             `json:"name,omitempty"`
	Description     string             `json:"description,omitempty"`
	EndsUnixMill    int64              `json:"ends_ms,omitempty"`
	Multipliers     map[string]float64 `json:"multipliers,omitempty"`
}

// SHOP (server -> client): purchasable item catalog.
type ShopMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Items           []ShopItem `json:"items"`
}

type ShopItem struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
}

// FEEDBACK (server -> one client): per-action success/failure.
type FeedbackMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Success         bool   `json:"success"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message"`
	Sound           string `json:"sound,omitempty"`
}

// OBSERVATION (server -> one client): textual result of the observe verb.
type ObservationMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlantID         string `json:"plant_id"`
	Text            string `json:"text"`
}
