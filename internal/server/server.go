package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"bunker-server/internal/game"
)

// Config carries everything the server needs from flags/environment; cmd/api
// populates it via cobra and viper.
type Config struct {
	Bind      string
	Port      int
	PublicURL string
	StaticDir string

	// RoomIdleTimeout is how long a room may sit with every player offline
	// before the reaper removes it. Zero disables reaping.
	RoomIdleTimeout time.Duration

	// RateLimit is the number of frames a connection may send per second.
	RateLimit int
}

// reapInterval is how often the idle-room reaper wakes up.
const reapInterval = 10 * time.Minute

type Server struct {
	cfg         Config
	registry    *game.Registry
	connections *ConnectionManager
	rateLimiter *RateLimiter

	done chan struct{}
}

func New(cfg Config) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}

	s := &Server{
		cfg:         cfg,
		registry:    game.NewRegistry(),
		connections: NewConnectionManager(),
		rateLimiter: NewRateLimiter(cfg.RateLimit, time.Second),
		done:        make(chan struct{}),
	}

	if cfg.RoomIdleTimeout > 0 {
		go s.reapIdleRooms()
	}

	return s
}

// HTTPServer wraps the server's routes in an http.Server with the usual
// timeouts. The websocket endpoint relies on IdleTimeout staying generous.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.Port)),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Shutdown stops background tasks and closes every live socket so clients
// know to reconnect elsewhere.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)
	s.connections.CloseAll(websocket.StatusGoingAway, "Server closing")
	return nil
}

// publicURL is the externally reachable base URL used in QR join links.
func (s *Server) publicURL() string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}
	return fmt.Sprintf("http://localhost:%d", s.cfg.Port)
}

// reapIdleRooms removes rooms whose players have all been offline for longer
// than the configured timeout. Rooms survive disconnects indefinitely
// otherwise, which is fine for a party but not for a long-running service.
func (s *Server) reapIdleRooms() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			reaped := 0
			for _, room := range s.registry.Rooms() {
				if room.Reapable(s.cfg.RoomIdleTimeout) {
					s.registry.RemoveRoom(room.ID())
					reaped++
				}
			}
			if reaped > 0 {
				log.Printf("Reaped %d idle room(s), %d remaining", reaped, s.registry.Count())
			}
		}
	}
}
