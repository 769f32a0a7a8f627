package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const sendTimeout = 10 * time.Second

// session wraps one websocket connection and implements game.Session. Writes
// are serialized through a mutex because a broadcast and a direct reply may
// target the same socket from different goroutines.
type session struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newSession(id string, conn *websocket.Conn) *session {
	return &session{id: id, conn: conn}
}

// Send marshals v and writes it as a single text frame. Broadcast sends are
// fire-and-forget, so the write uses its own bounded context rather than the
// request context of whichever handler triggered it.
func (s *session) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, data)
}

// Close closes the underlying socket; the read loop's deferred cleanup does
// the rest.
func (s *session) Close(code websocket.StatusCode, reason string) {
	s.conn.Close(code, reason)
}

// ConnectionManager tracks every live websocket session so graceful shutdown
// can close them and the health endpoint can count them. Player↔session
// binding lives on the Player itself.
type ConnectionManager struct {
	sessions map[string]*session // connectionID → session
	mu       sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		sessions: make(map[string]*session),
	}
}

func (cm *ConnectionManager) Add(s *session) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.sessions[s.id] = s
}

func (cm *ConnectionManager) Remove(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.sessions, id)
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.sessions)
}

// CloseAll closes every live session with the given status code.
func (cm *ConnectionManager) CloseAll(code websocket.StatusCode, reason string) {
	cm.mu.RLock()
	sessions := make([]*session, 0, len(cm.sessions))
	for _, s := range cm.sessions {
		sessions = append(sessions, s)
	}
	cm.mu.RUnlock()

	for _, s := range sessions {
		s.Close(code, reason)
	}
}
