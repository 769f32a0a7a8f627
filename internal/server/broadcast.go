package server

import (
	"log"
	"strconv"

	"bunker-server/internal/game"
)

// outboundUpdate pairs a personalized snapshot with the session it is bound
// for, so sends can happen after the room lock is released.
type outboundUpdate struct {
	session    game.Session
	playerName string
	update     GameUpdate
}

// buildUpdates builds the shared room snapshot once and personalizes it with
// each connected player's own cards. Caller must hold the room lock; every
// map in the result is a copy, so the snapshot stays consistent no matter
// what happens to the room afterwards.
func buildUpdates(room *game.Room) []outboundUpdate {
	shared := buildGameUpdate(room)

	var out []outboundUpdate
	for _, p := range room.Players() {
		if p.Session == nil {
			continue
		}
		update := shared
		update.MyCards = cloneIntMap(p.AssignedCards)
		out = append(out, outboundUpdate{
			session:    p.Session,
			playerName: p.Name,
			update:     update,
		})
	}
	return out
}

// deliver fans the personalized updates out. A failed send is logged and
// skipped; one dead consumer never blocks delivery to the rest.
func (s *Server) deliver(updates []outboundUpdate) {
	for _, u := range updates {
		if err := u.session.Send(u.update); err != nil {
			log.Printf("Failed to send game_update to %s: %v", u.playerName, err)
		}
	}
}

// buildGameUpdate serializes the shared, token-free view of a room. Caller
// must hold the room lock.
func buildGameUpdate(room *game.Room) GameUpdate {
	update := GameUpdate{
		Type:          "game_update",
		Phase:         string(room.Phase()),
		Round:         room.Round(),
		RoomID:        room.ID(),
		History:       buildHistory(room),
		StartVotes:    room.StartVotes(),
		RoundReveals:  cloneStringMap(room.RoundReveals()),
		RoundConfirms: room.RoundConfirms(),
	}

	if idx := room.EventIdx(); idx != nil {
		v := *idx
		update.EventIdx = &v
	}

	for _, p := range room.Players() {
		update.Players = append(update.Players, PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Online:   p.Online,
			Ready:    containsID(update.StartVotes, p.ID),
			Revealed: cloneIntMap(p.RevealedCards),
		})
	}

	return update
}

// buildHistory merges the per-round event draws with the per-round reveals.
// Every started round has an event entry; its reveals may still be empty.
func buildHistory(room *game.Room) map[string]RoundHistory {
	reveals := room.RevealHistory()

	history := make(map[string]RoundHistory, len(room.EventHistory()))
	for round, eventIdx := range room.EventHistory() {
		history[strconv.Itoa(round)] = RoundHistory{
			EventIdx: eventIdx,
			Reveals:  cloneStringMap(reveals[round]),
		}
	}
	return history
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func cloneIntMap(m map[string]int) map[string]int {
	clone := make(map[string]int, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

func cloneStringMap(m map[string]string) map[string]string {
	clone := make(map[string]string, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
