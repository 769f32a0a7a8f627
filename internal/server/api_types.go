package server

// ============================================================================
// INBOUND MESSAGES
// ============================================================================

// ClientMessage is the single flat frame shape for every inbound message.
// Type discriminates; the remaining fields are populated per message type and
// absent fields simply decode to their zero values.
type ClientMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId,omitempty"`
	Name     string `json:"name,omitempty"`
	Token    string `json:"token,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	CardKey  string `json:"cardKey,omitempty"`
}

// ============================================================================
// OUTBOUND MESSAGES
// ============================================================================

// OpenRoomMessage is the private reply to a successful new_game or join_game.
// It is the only message that ever carries the rejoin token.
type OpenRoomMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PongMessage struct {
	Type string `json:"type"`
}

// GameUpdate is the personalized room snapshot broadcast to every connected
// player after a state change. All fields except MyCards are identical for
// every recipient.
type GameUpdate struct {
	Type          string                  `json:"type"`
	Phase         string                  `json:"phase"`
	Round         int                     `json:"round"`
	RoomID        string                  `json:"roomId"`
	EventIdx      *int                    `json:"eventIdx,omitempty"`
	History       map[string]RoundHistory `json:"history"`
	StartVotes    []string                `json:"startVotes"`
	Players       []PlayerView            `json:"players"`
	RoundReveals  map[string]string       `json:"roundReveals"`
	RoundConfirms []string                `json:"roundConfirms"`
	MyCards       map[string]int          `json:"myCards,omitempty"`
}

// RoundHistory merges the event draw and the reveals of one completed or
// in-progress round. Keyed in GameUpdate.History by the stringified round
// number.
type RoundHistory struct {
	EventIdx int               `json:"eventIdx"`
	Reveals  map[string]string `json:"reveals"`
}

type PlayerView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Online   bool           `json:"online"`
	Ready    bool           `json:"ready"`
	Revealed map[string]int `json:"revealed"`
}

// ============================================================================
// ERROR CODES
// ============================================================================

const (
	codeRoomNotFound = "room_not_found"
	codeNameRequired = "name_required"
	codeNameTooLong  = "name_too_long"
	codeRoomFull     = "room_full"
	codeGameStarted  = "game_started"
	codeInvalidToken = "invalid_token"
)

// ============================================================================
// HEALTH (GET /health)
// ============================================================================

type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}
