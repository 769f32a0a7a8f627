package game

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Phase is the room's position in the fixed round structure. Transitions are
// strictly ordered: lobby → reveal → confirm → (reveal | game_over), and
// game_over is terminal.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseReveal   Phase = "reveal"
	PhaseConfirm  Phase = "confirm"
	PhaseGameOver Phase = "game_over"
)

const (
	MinPlayers = 3
	MaxPlayers = 6
)

// Room holds one game's full mutable state. A single mutex serializes every
// handler's read-modify-write cycle so that quorum checks and the phase
// transitions they trigger are atomic. All methods except ID and Reapable
// require the caller to hold the lock.
type Room struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	phase Phase
	round int

	// eventIdx is nil until the first round starts.
	eventIdx *int

	players   map[string]*Player
	nameIndex map[string]string // lowercase name → player id

	// Append-only once written for a round.
	eventHistory  map[int]int               // round → event index
	revealHistory map[int]map[string]string // round → player id → card key

	// Round-scoped; startVotes only matters in the lobby, the other two are
	// cleared whenever the round advances.
	startVotes    map[string]bool
	roundReveals  map[string]string // player id → card key
	roundConfirms map[string]bool
}

func NewRoom(id string) *Room {
	return &Room{
		id:            id,
		createdAt:     time.Now(),
		phase:         PhaseLobby,
		players:       make(map[string]*Player),
		nameIndex:     make(map[string]string),
		eventHistory:  make(map[int]int),
		revealHistory: make(map[int]map[string]string),
		startVotes:    make(map[string]bool),
		roundReveals:  make(map[string]string),
		roundConfirms: make(map[string]bool),
	}
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// ID is immutable and safe to read without the lock.
func (r *Room) ID() string { return r.id }

func (r *Room) Phase() Phase   { return r.phase }
func (r *Room) Round() int     { return r.round }
func (r *Room) EventIdx() *int { return r.eventIdx }

func (r *Room) PlayerCount() int { return len(r.players) }

// Players returns the room's players sorted by name so that broadcasts and
// tests see a stable order.
func (r *Room) Players() []*Player {
	players := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Name < players[j].Name
	})
	return players
}

func (r *Room) Player(id string) *Player {
	return r.players[id]
}

// PlayerByName resolves a player through the case-insensitive name index.
func (r *Room) PlayerByName(name string) *Player {
	id, ok := r.nameIndex[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return r.players[id]
}

func (r *Room) AddPlayer(p *Player) {
	r.players[p.ID] = p
	r.nameIndex[strings.ToLower(p.Name)] = p.ID
}

// RemovePlayer fully deregisters a player; their name becomes available for
// reuse. Game state already recorded in the histories is kept.
func (r *Room) RemovePlayer(id string) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	delete(r.players, id)
	delete(r.nameIndex, strings.ToLower(p.Name))
	delete(r.startVotes, id)
}

// StartVotes returns the ids of players who voted to start, sorted.
func (r *Room) StartVotes() []string {
	return sortedKeys(r.startVotes)
}

// RoundReveals returns the current round's player id → card key map.
func (r *Room) RoundReveals() map[string]string {
	return r.roundReveals
}

// RoundConfirms returns the ids of players who confirmed the current round's
// end, sorted.
func (r *Room) RoundConfirms() []string {
	return sortedKeys(r.roundConfirms)
}

func (r *Room) EventHistory() map[int]int {
	return r.eventHistory
}

func (r *Room) RevealHistory() map[int]map[string]string {
	return r.revealHistory
}

// VoteStart records a start vote and begins the game once every registered
// player has voted and the player count is within [MinPlayers, MaxPlayers].
// Votes arriving outside the lobby, or from a player no longer in the room,
// are ignored. Returns true if the game started as a result of this vote.
func (r *Room) VoteStart(playerID string) bool {
	if r.players[playerID] == nil {
		return false
	}
	if r.phase != PhaseLobby {
		return false
	}

	r.startVotes[playerID] = true

	count := len(r.players)
	if count < MinPlayers || count > MaxPlayers || len(r.startVotes) != count {
		return false
	}
	for id := range r.players {
		if !r.startVotes[id] {
			return false
		}
	}

	r.round = 1
	DealCards(r.Players())
	r.drawEvent()
	r.phase = PhaseReveal
	return true
}

// Discard reveals cardKey for the given player and moves the room to the
// confirm phase once every online player has revealed this round. Returns
// false, with no state change, when any precondition fails: wrong phase, a
// key the player never held or already used, or a second reveal in the same
// round.
func (r *Room) Discard(playerID, cardKey string) bool {
	p := r.players[playerID]
	if p == nil {
		return false
	}
	if r.phase != PhaseReveal {
		return false
	}
	if _, dealt := p.AssignedCards[cardKey]; !dealt {
		return false
	}
	if p.HasUsedKey(cardKey) {
		return false
	}
	if _, already := r.roundReveals[playerID]; already {
		return false
	}

	p.RevealCard(cardKey)
	r.roundReveals[playerID] = cardKey

	reveals, ok := r.revealHistory[r.round]
	if !ok {
		reveals = make(map[string]string)
		r.revealHistory[r.round] = reveals
	}
	reveals[playerID] = cardKey

	if r.allActiveRevealed() {
		r.phase = PhaseConfirm
	}
	return true
}

// ConfirmRound records a round-end confirmation and, once every online player
// has confirmed, either ends the game or advances to the next round with a
// fresh event draw. Returns false, with no state change, on a wrong-phase or
// duplicate confirmation.
func (r *Room) ConfirmRound(playerID string) bool {
	if r.players[playerID] == nil {
		return false
	}
	if r.phase != PhaseConfirm {
		return false
	}
	if r.roundConfirms[playerID] {
		return false
	}

	r.roundConfirms[playerID] = true

	if !r.allActiveConfirmed() {
		return true
	}

	if r.allPlayersUsedAllCards() {
		r.phase = PhaseGameOver
		return true
	}

	r.round++
	r.roundReveals = make(map[string]string)
	r.roundConfirms = make(map[string]bool)
	r.drawEvent()
	r.phase = PhaseReveal
	return true
}

// drawEvent picks the event index for the current round and records it in the
// history.
func (r *Room) drawEvent() {
	idx := DrawEventIndex(r.eventHistory)
	r.eventHistory[r.round] = idx
	r.eventIdx = &idx
}

// ActivePlayerIDs returns the ids of all online players.
func (r *Room) ActivePlayerIDs() []string {
	var active []string
	for id, p := range r.players {
		if p.Online {
			active = append(active, id)
		}
	}
	sort.Strings(active)
	return active
}

// allActiveRevealed reports whether every online player has revealed a card
// this round. False when nobody is online: the round cannot complete with an
// empty quorum.
func (r *Room) allActiveRevealed() bool {
	active := r.ActivePlayerIDs()
	if len(active) == 0 {
		return false
	}
	for _, id := range active {
		if _, ok := r.roundReveals[id]; !ok {
			return false
		}
	}
	return true
}

func (r *Room) allActiveConfirmed() bool {
	active := r.ActivePlayerIDs()
	if len(active) == 0 {
		return false
	}
	for _, id := range active {
		if !r.roundConfirms[id] {
			return false
		}
	}
	return true
}

// allPlayersUsedAllCards checks every registered player, online or not; an
// offline player with cards left keeps the game alive for their return.
func (r *Room) allPlayersUsedAllCards() bool {
	for _, p := range r.players {
		if !p.HasRevealedAllCards() {
			return false
		}
	}
	return true
}

// Reapable reports whether the room has been idle for at least idleFor: no
// live connections and no player seen since the cutoff. Takes the lock
// itself; used by the registry's idle-room reaper.
func (r *Room) Reapable(idleFor time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-idleFor)
	newest := r.createdAt
	for _, p := range r.players {
		if p.Online || p.Session != nil {
			return false
		}
		if p.LastSeen.After(newest) {
			newest = p.LastSeen
		}
	}
	return newest.Before(cutoff)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
