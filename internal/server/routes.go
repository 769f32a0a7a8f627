package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

func (s *Server) RegisterRoutes() http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/health", s.healthHandler)
	router.HandlerFunc(http.MethodGet, "/ws", s.websocketHandler)
	router.GET("/qr/:roomId", s.qrHandler)

	// Everything else falls through to the SPA client, when one is bundled.
	if s.cfg.StaticDir != "" {
		router.NotFound = http.FileServer(http.Dir(s.cfg.StaticDir))
	}

	return s.corsMiddleware(router)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(HealthResponse{
		Status:      "ok",
		Rooms:       s.registry.Count(),
		Connections: s.connections.Count(),
	})
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// qrHandler renders a PNG QR code pointing at the join page for an existing
// room, for passing a phone around the table.
func (s *Server) qrHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	roomID := params.ByName("roomId")
	if _, ok := s.registry.GetRoom(roomID); !ok {
		http.NotFound(w, r)
		return
	}

	joinURL := s.publicURL() + "/?room=" + roomID
	png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		log.Printf("Failed to write QR code: %v", err)
	}
}
