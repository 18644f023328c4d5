package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JacquesGariepy/plant-game/internal/protocol"
)

// A scripted caretaker: joins the garden and periodically waters, talks to
// and mists whatever plants it sees. Handy for smoke-testing a server.
func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "player name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	verbs := []string{protocol.VerbWater, protocol.VerbTalk, protocol.VerbMist, protocol.VerbClean}
	var plants []string
	lastAct := time.Now()

	for {
		select {
		case <-stop:
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME player=%s session=%s max_plants=%d", w.PlayerName, w.SessionID, w.GardenParams.MaxPlants)

		case protocol.TypeGarden:
			var g protocol.GardenMsg
			if err := json.Unmarshal(msg, &g); err != nil {
				continue
			}
			plants = plants[:0]
			for _, p := range g.Plants {
				if !p.Wilted {
					plants = append(plants, p.ID)
				}
			}

		case protocol.TypeFeedback:
			var fb protocol.FeedbackMsg
			if err := json.Unmarshal(msg, &fb); err != nil {
				continue
			}
			if !fb.Success && fb.Code != protocol.ErrCooldown {
				logger.Printf("rejected: %s %s", fb.Code, fb.Message)
			}
		}

		if len(plants) > 0 && time.Since(lastAct) > 5*time.Second {
			lastAct = time.Now()
			cmd := protocol.CommandMsg{
				Type:            protocol.TypeCommand,
				ProtocolVersion: protocol.Version,
				Verb:            verbs[rng.Intn(len(verbs))],
				PlantID:         plants[rng.Intn(len(plants))],
			}
			_ = conn.WriteJSON(cmd)
		}
	}
}
