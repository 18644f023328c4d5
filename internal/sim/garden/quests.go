package garden

import (
	"fmt"
	"time"

	"github.com/JacquesGariepy/plant-game/internal/protocol"
)

// assignQuest picks a random quest for the session, avoiding the one it just
// completed when another choice exists.
func (g *Garden) assignQuest(s *session) {
	candidates := g.cats.Quests.All
	if len(candidates) == 0 {
		s.Quest = nil
		return
	}
	if s.Quest != nil && len(candidates) > 1 {
		filtered := candidates[:0:0]
		for _, q := range candidates {
			if q.QuestID != s.Quest.QuestID {
				filtered = append(filtered, q)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}
	def := candidates[g.rng.Intn(len(candidates))]
	s.Quest = &Quest{
		QuestID:      def.QuestID,
		Description:  def.Description,
		Verb:         def.Verb,
		Target:       def.Target,
		UniqueTarget: def.UniqueTarget,
		RewardScore:  def.RewardScore,
		RewardCoins:  def.RewardCoins,
		seen:         map[string]bool{},
	}
}

// progressQuest advances the session's quest when the applied verb matches.
// Unique-target quests count distinct plants; repeats on the same plant are
// ignored.
func (g *Garden) progressQuest(s *session, led *Ledger, verb, plantID string) {
	q := s.Quest
	if q == nil || q.Completed || q.Verb != verb {
		return
	}
	if q.UniqueTarget {
		if plantID == "" || q.seen[plantID] {
			return
		}
		q.seen[plantID] = true
		q.Progress = len(q.seen)
	} else {
		q.Progress++
	}
	if q.Progress < q.Target {
		g.sendQuest(s)
		return
	}

	q.Completed = true
	q.Progress = q.Target
	g.addReward(led, q.RewardScore, q.RewardCoins, 0)
	g.addLog(s.Name, fmt.Sprintf("completed the quest: %s", q.Description))
	g.sendQuest(s)
	g.sendFeedback(s, true, "", fmt.Sprintf("quest complete! +%d coins", q.RewardCoins), "questComplete")
	g.sendPlayerInfo(s)

	// A fresh quest arrives shortly after, handled in step.
	s.QuestReassignAt = g.now().Add(3 * time.Second)
}

func (g *Garden) sendQuest(s *session) {
	msg := protocol.QuestMsg{Type: protocol.TypeQuest, ProtocolVersion: protocol.Version}
	if q := s.Quest; q != nil {
		msg.QuestID = q.QuestID
		msg.Description = q.Description
		msg.Verb = q.Verb
		msg.Progress = q.Progress
		msg.Target = q.Target
		msg.Completed = q.Completed
	}
	g.sendTo(s, msg)
}
