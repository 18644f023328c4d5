// Package garden implements the authoritative simulation core of the shared
// virtual garden: the entity store, the per-entity tick engine, the action
// resolver, quests, global events and player ledgers.
//
// All state is owned by a single loop goroutine (Run). Transports talk to it
// exclusively through the Join/Leave/Inbox channels, so no two mutations of
// the same plant or ledger ever interleave.
package garden

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JacquesGariepy/plant-game/internal/persistence/snapshot"
	"github.com/JacquesGariepy/plant-game/internal/protocol"
	"github.com/JacquesGariepy/plant-game/internal/sim/catalogs"
	"github.com/JacquesGariepy/plant-game/internal/sim/traits"
	"github.com/JacquesGariepy/plant-game/internal/sim/tuning"
)

type JoinRequest struct {
	Name        string
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type CommandEnvelope struct {
	SessionID string
	Cmd       protocol.CommandMsg
}

// CareLogEntry is the durable record of one applied action or notable tick
// event, written to the compressed JSONL care log and the sqlite index.
type CareLogEntry struct {
	Actor   string `json:"actor"`
	Message string `json:"message"`
	TsMs    int64  `json:"ts_ms"`
}

// CareLogger persists care-log entries. May be nil.
type CareLogger interface {
	WriteCare(entry CareLogEntry) error
}

// Index is the optional read-model sink (sqlite). Implementations must not
// block; the garden loop calls these inline.
type Index interface {
	UpsertLedger(playerID, name string, score, coins, seeds int)
	RecordCare(actor, message string, tsMs int64)
}

// Ledger is the durable per-player accumulator. Never deleted.
type Ledger struct {
	PlayerID    string
	Name        string
	Score       int
	Coins       int
	Seeds       int
	ResumeToken string
}

type session struct {
	SessionID string
	PlayerID  string
	Name      string
	Out       chan []byte

	LastCreate    time.Time
	LastWaterAll  time.Time
	LastPlantSeed time.Time

	Quest           *Quest
	QuestReassignAt time.Time
}

// Quest is the per-session objective state.
type Quest struct {
	QuestID      string
	Description  string
	Verb         string
	Target       int
	UniqueTarget bool
	RewardScore  int
	RewardCoins  int

	Progress  int
	Completed bool
	// seen tracks distinct plant ids for unique-target quests.
	seen map[string]bool
}

type activeEvent struct {
	EventID     string
	Name        string
	Description string
	End         time.Time
	Multipliers Multipliers
}

// Garden is the single authoritative simulation instance.
type Garden struct {
	tune tuning.Tuning
	cats *catalogs.Catalogs
	log  *log.Logger

	now func() time.Time
	rng *rand.Rand

	plants   map[string]*Plant
	ledgers  map[string]*Ledger
	sessions map[string]*session
	logs     *logRing
	event    *activeEvent

	actions map[ActionKind]actionSpec

	inbox chan CommandEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	// Optional sinks (may be nil). Snapshot writing is off-thread.
	snapshotSink chan<- snapshot.SnapshotV1
	careLogger   CareLogger
	index        Index

	lastSave time.Time
	// eventChance is the probability a new event starts per check interval.
	eventChance float64
}

func New(tune tuning.Tuning, cats *catalogs.Catalogs, logger *log.Logger) *Garden {
	if logger == nil {
		logger = log.New(log.Writer(), "[garden] ", log.LstdFlags)
	}
	g := &Garden{
		tune:        tune,
		cats:        cats,
		log:         logger,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		plants:      map[string]*Plant{},
		ledgers:     map[string]*Ledger{},
		sessions:    map[string]*session{},
		logs:        newLogRing(tune.MaxLogEntries * 5),
		inbox:       make(chan CommandEnvelope, 1024),
		join:        make(chan JoinRequest, 64),
		leave:       make(chan string, 64),
		stop:        make(chan struct{}),
		eventChance: 0.15,
	}
	g.actions = newActionTable(tune)
	return g
}

// SetClock overrides the time source. Tests only; call before Run.
func (g *Garden) SetClock(now func() time.Time) { g.now = now }

// SetSeed re-seeds the random source. Tests only; call before Run.
func (g *Garden) SetSeed(seed int64) { g.rng = rand.New(rand.NewSource(seed)) }

func (g *Garden) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { g.snapshotSink = ch }
func (g *Garden) SetCareLogger(l CareLogger)                    { g.careLogger = l }
func (g *Garden) SetIndex(idx Index)                            { g.index = idx }

func (g *Garden) Inbox() chan<- CommandEnvelope { return g.inbox }
func (g *Garden) Join() chan<- JoinRequest      { return g.join }
func (g *Garden) Leave() chan<- string          { return g.leave }

// Init seeds a fresh garden with the system plant. Call once before Run when
// no snapshot was imported (or when the imported snapshot held no plants).
func (g *Garden) Init() {
	if len(g.plants) > 0 {
		return
	}
	if _, err := g.createPlant(SystemCreatorID, "System", "Gaia Prime"); err != nil {
		g.log.Printf("seed system plant: %v", err)
	}
}

// Run drives the simulation until ctx is canceled or Stop is called. All
// timers live inside this select, so tick, event check, leaderboard refresh
// and command handling are strictly serialized.
func (g *Garden) Run(ctx context.Context) error {
	tick := time.NewTicker(time.Duration(g.tune.TickIntervalMs) * time.Millisecond)
	defer tick.Stop()
	leaderboard := time.NewTicker(time.Duration(g.tune.LeaderboardIntervalSec) * time.Second)
	defer leaderboard.Stop()
	eventCheck := time.NewTicker(time.Duration(g.tune.EventCheckIntervalSec) * time.Second)
	defer eventCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.stop:
			return nil
		case req := <-g.join:
			g.handleJoin(req)
		case id := <-g.leave:
			g.handleLeave(id)
		case env := <-g.inbox:
			g.handleCommand(env)
		case <-tick.C:
			g.step(g.now())
		case <-leaderboard.C:
			g.broadcastLeaderboard()
		case <-eventCheck.C:
			g.checkEvent(g.now())
		}
	}
}

func (g *Garden) Stop() { close(g.stop) }

func (g *Garden) handleJoin(req JoinRequest) {
	// Reattach a persistent ledger identity when the resume token matches;
	// otherwise mint a fresh player.
	var led *Ledger
	if tok := strings.TrimSpace(req.ResumeToken); tok != "" {
		ids := make([]string, 0, len(g.ledgers))
		for id := range g.ledgers {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if g.ledgers[id].ResumeToken == tok {
				led = g.ledgers[id]
				break
			}
		}
	}

	name := sanitizeName(req.Name, 20)
	if led == nil {
		playerID := uuid.NewString()
		if name == "" {
			name = "Gardener_" + playerID[:4]
		}
		led = &Ledger{PlayerID: playerID, Name: name}
		g.ledgers[playerID] = led
	} else if name != "" {
		led.Name = name
	}
	// Tokens rotate on every attach.
	led.ResumeToken = "resume_" + uuid.NewString()

	s := &session{
		SessionID: uuid.NewString(),
		PlayerID:  led.PlayerID,
		Name:      led.Name,
		Out:       req.Out,
	}
	g.sessions[s.SessionID] = s
	g.assignQuest(s)

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       s.SessionID,
		PlayerID:        led.PlayerID,
		PlayerName:      led.Name,
		ResumeToken:     led.ResumeToken,
		GardenParams: protocol.GardenParams{
			TickIntervalMs: g.tune.TickIntervalMs,
			MaxPlants:      g.tune.MaxPlants,
			MaxLogEntries:  g.tune.MaxLogEntries,
		},
		Catalogs: protocol.CatalogDigests{
			QuestsDigest: g.cats.Quests.Digest,
			EventsDigest: g.cats.Events.Digest,
			ShopDigest:   g.cats.Shop.Digest,
		},
	}
	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: welcome}
	}

	// Connect burst: full state for the new session.
	g.sendTo(s, g.gardenMsg())
	g.sendTo(s, g.logsMsg())
	g.sendTo(s, g.leaderboardMsg())
	g.sendTo(s, g.shopMsg())
	g.sendTo(s, g.eventMsg())
	g.sendPlayerInfo(s)
	g.sendQuest(s)
}

func (g *Garden) handleLeave(sessionID string) {
	s := g.sessions[sessionID]
	if s == nil {
		return
	}
	delete(g.sessions, sessionID)
	g.addLog("System", fmt.Sprintf("%s disconnected.", s.Name))
}

// sessionLedger resolves a session and its attached ledger; both nil on
// unknown ids.
func (g *Garden) sessionLedger(sessionID string) (*session, *Ledger) {
	s := g.sessions[sessionID]
	if s == nil {
		return nil, nil
	}
	return s, g.ledgers[s.PlayerID]
}

// createPlant allocates and registers a new entity, enforcing the capacity
// ceiling. Fails without mutation when the garden is full.
func (g *Garden) createPlant(creatorID, creatorName, requestedName string) (*Plant, error) {
	if len(g.plants) >= g.tune.MaxPlants {
		return nil, errCapacity
	}
	now := g.now()
	id := uuid.NewString()
	name := sanitizeName(requestedName, 30)
	if name == "" {
		if creatorName != "" && creatorID != SystemCreatorID {
			name = sanitizeName(creatorName+"'s plant", 30)
		} else {
			name = "Plant_" + id[:4]
		}
	}
	p := &Plant{
		ID:              id,
		Name:            name,
		CreatorID:       creatorID,
		CreatorName:     creatorName,
		Characteristics: traits.Generate(g.rng),
		Health:          100,
		Water:           80,
		Energy:          80,
		Fertilizer:      10,
		Pest:            0,
		EnvStatus:       EnvOptimal,
		GrowthStage:     StageSeed,
		GrowthProgress:  0,
		PotSize:         PotSmall,
		PotColor:        defaultPotColor,
		Born:            now,
		LastUpdate:      now,
		LastActors:      map[ActionKind]string{},
		LastAction:      map[ActionKind]time.Time{},
	}
	g.plants[id] = p
	g.addLog(creatorName, fmt.Sprintf("created %s", p.Name))
	g.broadcastGarden()
	return p, nil
}

// Plant returns a plant by id. The caller must be on the loop goroutine.
func (g *Garden) Plant(id string) (*Plant, bool) {
	p, ok := g.plants[id]
	return p, ok
}

// PlantCount reports the current population.
func (g *Garden) PlantCount() int { return len(g.plants) }

func sanitizeName(name string, maxLen int) string {
	name = strings.TrimSpace(name)
	// Truncate on rune boundaries so multi-byte names stay valid UTF-8.
	if r := []rune(name); len(r) > maxLen {
		name = strings.TrimSpace(string(r[:maxLen]))
	}
	return name
}

// --- broadcasting ---

func (g *Garden) gardenMsg() protocol.GardenMsg {
	msg := protocol.GardenMsg{
		Type:            protocol.TypeGarden,
		ProtocolVersion: protocol.Version,
		Plants:          make([]protocol.PlantObs, 0, len(g.plants)),
	}
	ids := make([]string, 0, len(g.plants))
	for id := range g.plants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := g.plants[id]
		c := p.Characteristics
		msg.Plants = append(msg.Plants, protocol.PlantObs{
			ID:              p.ID,
			Name:            p.Name,
			CreatorName:     p.CreatorName,
			Health:          p.Health,
			WaterLevel:      p.Water,
			EnergyLevel:     p.Energy,
			FertilizerLevel: p.Fertilizer,
			PestLevel:       p.Pest,
			GrowthStage:     string(p.GrowthStage),
			GrowthProgress:  p.GrowthProgress,
			PotSize:         string(p.PotSize),
			PotColor:        p.PotColor,
			EnvStatus:       string(p.EnvStatus),
			LightOn:         p.LightOn,
			MusicPlaying:    p.MusicPlaying,
			Wilted:          p.Wilted(),
			BaseColor:       c.BaseColor,
			LeafShape:       c.LeafShape,
			FlowerColor:     c.FlowerColor,
			RareTrait:       c.RareTrait,
		})
	}
	return msg
}

func (g *Garden) logsMsg() protocol.LogsMsg {
	entries := g.logs.Recent(g.tune.MaxLogEntries)
	msg := protocol.LogsMsg{
		Type:            protocol.TypeLogs,
		ProtocolVersion: protocol.Version,
		Entries:         make([]protocol.LogItem, 0, len(entries)),
	}
	for _, e := range entries {
		msg.Entries = append(msg.Entries, protocol.LogItem{Actor: e.Actor, Message: e.Message, UnixMill: e.TsMs})
	}
	return msg
}

func (g *Garden) leaderboardMsg() protocol.LeaderboardMsg {
	top := g.topLedgers(g.tune.LeaderboardN)
	msg := protocol.LeaderboardMsg{
		Type:            protocol.TypeLeaderboard,
		ProtocolVersion: protocol.Version,
		Rows:            make([]protocol.LeaderboardItem, 0, len(top)),
	}
	for _, l := range top {
		msg.Rows = append(msg.Rows, protocol.LeaderboardItem{
			PlayerID: l.PlayerID,
			Name:     l.Name,
			Score:    l.Score,
			Coins:    l.Coins,
			Seeds:    l.Seeds,
		})
	}
	return msg
}

func (g *Garden) shopMsg() protocol.ShopMsg {
	msg := protocol.ShopMsg{
		Type:            protocol.TypeShop,
		ProtocolVersion: protocol.Version,
		Items:           make([]protocol.ShopItem, 0, len(g.cats.Shop.All)),
	}
	for _, it := range g.cats.Shop.All {
		msg.Items = append(msg.Items, protocol.ShopItem{
			ItemID:      it.ItemID,
			Name:        it.Name,
			Price:       it.Price,
			Kind:        it.Kind,
			Description: it.Description,
		})
	}
	return msg
}

func (g *Garden) eventMsg() protocol.EventMsg {
	msg := protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version}
	if g.event != nil {
		msg.Active = true
		msg.EventID = g.event.EventID
		msg.Name = g.event.Name
		msg.Description = g.event.Description
		msg.EndsUnixMill = g.event.End.UnixMilli()
		msg.Multipliers = g.event.Multipliers
	}
	return msg
}

func (g *Garden) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	for _, s := range g.sessions {
		if s.Out != nil {
			sendLatest(s.Out, b)
		}
	}
}

func (g *Garden) sendTo(s *session, v any) {
	if s == nil || s.Out == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	sendLatest(s.Out, b)
}

func (g *Garden) broadcastGarden()      { g.broadcast(g.gardenMsg()) }
func (g *Garden) broadcastLogs()        { g.broadcast(g.logsMsg()) }
func (g *Garden) broadcastLeaderboard() { g.broadcast(g.leaderboardMsg()) }
func (g *Garden) broadcastEvent()       { g.broadcast(g.eventMsg()) }

func (g *Garden) sendPlayerInfo(s *session) {
	led := g.ledgers[s.PlayerID]
	if led == nil {
		return
	}
	g.sendTo(s, protocol.PlayerMsg{
		Type:            protocol.TypePlayer,
		ProtocolVersion: protocol.Version,
		Name:            led.Name,
		Score:           led.Score,
		Coins:           led.Coins,
		Seeds:           led.Seeds,
	})
}

func (g *Garden) sendFeedback(s *session, success bool, code, message, sound string) {
	g.sendTo(s, protocol.FeedbackMsg{
		Type:            protocol.TypeFeedback,
		ProtocolVersion: protocol.Version,
		Success:         success,
		Code:            code,
		Message:         message,
		Sound:           sound,
	})
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
