package game

import (
	"crypto/subtle"
	"time"
)

// Session is the transport handle bound to a player. The server package
// provides a websocket-backed implementation; tests substitute fakes.
type Session interface {
	// Send marshals v as JSON and writes it as a single text frame.
	Send(v any) error
}

// Player is one registered identity inside a room. The rejoin token is a
// secret known only to the owning client and is never included in broadcasts;
// the public player id is safe to share.
type Player struct {
	ID    string
	Token string
	Name  string

	// Session is nil when the player has no live connection. A nil session
	// does not mean the player left: game state survives disconnects and
	// the player can rejoin under the same name with their token.
	Session Session

	AssignedCards map[string]int
	RevealedCards map[string]int
	UsedKeys      map[string]bool

	Online   bool
	LastSeen time.Time
}

func NewPlayer(id, token, name string, session Session) *Player {
	return &Player{
		ID:            id,
		Token:         token,
		Name:          name,
		Session:       session,
		AssignedCards: make(map[string]int),
		RevealedCards: make(map[string]int),
		UsedKeys:      make(map[string]bool),
		Online:        true,
		LastSeen:      time.Now(),
	}
}

// Rebind atomically replaces the player's session on rejoin and marks them
// online. Callers must hold the room lock.
func (p *Player) Rebind(session Session) {
	p.Session = session
	p.Online = true
	p.LastSeen = time.Now()
}

// Disconnect detaches the session without removing the player from the room.
func (p *Player) Disconnect() {
	p.Session = nil
	p.Online = false
	p.LastSeen = time.Now()
}

// TokenMatches compares a presented rejoin token against the player's secret
// in constant time.
func (p *Player) TokenMatches(token string) bool {
	return subtle.ConstantTimeCompare([]byte(p.Token), []byte(token)) == 1
}

// RevealCard moves key into the revealed set. Keys the player was never
// dealt are ignored.
func (p *Player) RevealCard(key string) {
	idx, ok := p.AssignedCards[key]
	if !ok {
		return
	}
	p.RevealedCards[key] = idx
	p.UsedKeys[key] = true
}

func (p *Player) HasUsedKey(key string) bool {
	return p.UsedKeys[key]
}

// HasRevealedAllCards reports whether the player has used every category key.
func (p *Player) HasRevealedAllCards() bool {
	return len(p.UsedKeys) >= TotalCardKeys
}
