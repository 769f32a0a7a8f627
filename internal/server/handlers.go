package server

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"bunker-server/internal/game"
)

const maxNameLength = 10

// Handler conventions: validation failures answer the caller with a
// structured error message and change nothing; precondition failures (wrong
// phase, duplicate action) are silent no-ops with no broadcast. Every state
// change happens under the room lock, and the personalized updates are
// captured before unlocking so the snapshot can't tear.

func (s *Server) handleNewGame(sess *session, msg ClientMessage) {
	name, ok := s.validateName(sess, msg.Name)
	if !ok {
		return
	}

	room, err := s.registry.CreateRoom()
	if err != nil {
		log.Printf("Failed to create room: %v", err)
		return
	}

	player := game.NewPlayer(uuid.New().String(), uuid.New().String(), name, sess)

	room.Lock()
	room.AddPlayer(player)
	updates := buildUpdates(room)
	room.Unlock()

	log.Printf("Player %s opened room %s", name, room.ID())

	s.sendOpenRoom(sess, room.ID(), player)
	s.deliver(updates)
}

func (s *Server) handleJoinGame(sess *session, msg ClientMessage) {
	room, ok := s.registry.GetRoom(msg.RoomID)
	if !ok {
		s.sendError(sess, codeRoomNotFound, "Room "+msg.RoomID+" not found")
		return
	}

	name, ok := s.validateName(sess, msg.Name)
	if !ok {
		return
	}

	room.Lock()

	var player *game.Player
	if existing := room.PlayerByName(name); existing != nil {
		// Rejoin path: the name is taken, so the caller must prove they own
		// it with the rejoin token issued at creation.
		if msg.Token == "" || !existing.TokenMatches(msg.Token) {
			room.Unlock()
			s.sendError(sess, codeInvalidToken, "Invalid token for user "+name)
			return
		}
		existing.Rebind(sess)
		player = existing
		log.Printf("Player %s rejoined room %s", name, room.ID())
	} else {
		if room.Phase() != game.PhaseLobby {
			room.Unlock()
			s.sendError(sess, codeGameStarted, "Game already started, cannot join")
			return
		}
		if room.PlayerCount() >= game.MaxPlayers {
			room.Unlock()
			s.sendError(sess, codeRoomFull, "Room is full")
			return
		}
		player = game.NewPlayer(uuid.New().String(), uuid.New().String(), name, sess)
		room.AddPlayer(player)
		log.Printf("Player %s joined room %s", name, room.ID())
	}

	updates := buildUpdates(room)
	room.Unlock()

	s.sendOpenRoom(sess, room.ID(), player)
	s.deliver(updates)
}

func (s *Server) handleLeaveGame(sess *session, msg ClientMessage) {
	room, ok := s.registry.GetRoom(msg.RoomID)
	if !ok {
		return
	}

	room.Lock()
	var left *game.Player
	for _, p := range room.Players() {
		if p.Session == game.Session(sess) {
			p.Disconnect()
			room.RemovePlayer(p.ID)
			left = p
			break
		}
	}
	if left == nil {
		room.Unlock()
		return
	}
	updates := buildUpdates(room)
	room.Unlock()

	log.Printf("Player %s left room %s", left.Name, room.ID())
	s.deliver(updates)
}

func (s *Server) handleReady(sess *session, msg ClientMessage) {
	room, player := s.resolve(msg)
	if player == nil {
		return
	}

	room.Lock()
	started := room.VoteStart(player.ID)
	updates := buildUpdates(room)
	room.Unlock()

	if started {
		log.Printf("Game started in room %s", room.ID())
	} else {
		log.Printf("Player %s is ready in room %s", player.Name, room.ID())
	}

	s.deliver(updates)
}

func (s *Server) handleDiscard(sess *session, msg ClientMessage) {
	room, player := s.resolve(msg)
	if player == nil {
		return
	}

	room.Lock()
	ok := room.Discard(player.ID, msg.CardKey)
	var updates []outboundUpdate
	if ok {
		updates = buildUpdates(room)
	}
	room.Unlock()

	if !ok {
		log.Printf("Rejected discard of %q by %s in room %s", msg.CardKey, player.Name, room.ID())
		return
	}

	log.Printf("Player %s revealed %q in room %s", player.Name, msg.CardKey, room.ID())
	s.deliver(updates)
}

func (s *Server) handleConfirm(sess *session, msg ClientMessage) {
	room, player := s.resolve(msg)
	if player == nil {
		return
	}

	room.Lock()
	ok := room.ConfirmRound(player.ID)
	var updates []outboundUpdate
	if ok {
		updates = buildUpdates(room)
	}
	room.Unlock()

	if !ok {
		log.Printf("Rejected confirm by %s in room %s", player.Name, room.ID())
		return
	}

	s.deliver(updates)
}

// resolve is the shared room/player prologue for the in-game handlers.
// Either may be absent, in which case the message is silently dropped.
func (s *Server) resolve(msg ClientMessage) (*game.Room, *game.Player) {
	room, ok := s.registry.GetRoom(msg.RoomID)
	if !ok {
		return nil, nil
	}

	room.Lock()
	player := room.Player(msg.PlayerID)
	room.Unlock()

	if player == nil {
		return room, nil
	}
	return room, player
}

// validateName trims and checks a display name, answering the caller with an
// error message when it is unusable.
func (s *Server) validateName(sess *session, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.sendError(sess, codeNameRequired, "Name is required")
		return "", false
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		s.sendError(sess, codeNameTooLong, "Name is too long")
		return "", false
	}
	return name, true
}

func (s *Server) sendOpenRoom(sess *session, roomID string, player *game.Player) {
	msg := OpenRoomMessage{
		Type:     "open_room",
		RoomID:   roomID,
		PlayerID: player.ID,
		Token:    player.Token,
	}
	if err := sess.Send(msg); err != nil {
		log.Printf("Failed to send open_room to %s: %v", sess.id, err)
	}
}

func (s *Server) sendError(sess *session, code, message string) {
	msg := ErrorMessage{
		Type:    "error",
		Code:    code,
		Message: message,
	}
	if err := sess.Send(msg); err != nil {
		log.Printf("Failed to send error message to %s: %v", sess.id, err)
	}
}
