package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"bunker-server/internal/game"
)

// websocketHandler owns one connection: accept, read loop, dispatch, and the
// disconnect cleanup that marks the bound player offline.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()

	connectionID := uuid.New().String()
	sess := newSession(connectionID, socket)
	log.Printf("New connection: %s", connectionID)
	s.connections.Add(sess)

	defer func() {
		s.connections.Remove(connectionID)
		s.rateLimiter.RemoveConnection(connectionID)
		log.Printf("Connection closed: %s", connectionID)
		s.handleDisconnect(sess)
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Printf("Connection %s read error: %v", connectionID, err)
			return
		}

		if msgType != websocket.MessageText {
			log.Printf("Non-text input from %s", connectionID)
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			log.Printf("Rate limit exceeded by %s, frame dropped", connectionID)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Invalid JSON from %s: %v", connectionID, err)
			continue
		}

		s.dispatch(sess, msg)
	}
}

// dispatch routes one decoded frame to its handler. Ping is answered inline;
// unknown types are logged and dropped with no error reply, a deliberate
// leniency towards older clients.
func (s *Server) dispatch(sess *session, msg ClientMessage) {
	switch msg.Type {
	case "ping":
		if err := sess.Send(PongMessage{Type: "pong"}); err != nil {
			log.Printf("Failed to send pong to %s: %v", sess.id, err)
		}

	case "new_game":
		s.handleNewGame(sess, msg)

	case "join_game":
		s.handleJoinGame(sess, msg)

	case "leave_game":
		s.handleLeaveGame(sess, msg)

	case "ready":
		s.handleReady(sess, msg)

	case "discard":
		s.handleDiscard(sess, msg)

	case "confirm":
		s.handleConfirm(sess, msg)

	default:
		log.Printf("Unknown message type %q from %s", msg.Type, sess.id)
	}
}

// handleDisconnect walks every room for the player bound to this session,
// marks them offline and broadcasts the reduced active set. The player is not
// removed; they can rejoin with their token.
func (s *Server) handleDisconnect(sess *session) {
	for _, room := range s.registry.Rooms() {
		room.Lock()
		var found *game.Player
		for _, p := range room.Players() {
			if p.Session == game.Session(sess) {
				found = p
				break
			}
		}
		if found == nil {
			room.Unlock()
			continue
		}

		found.Disconnect()
		updates := buildUpdates(room)
		room.Unlock()

		log.Printf("Player %s went offline in room %s", found.Name, room.ID())
		s.deliver(updates)
	}
}
