package web

import (
	"embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

//go:embed static/index.html
var static embed.FS

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The viewer is a local tool; any origin on this host may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// tapRequest is the JSON a viewer sends when a key is clicked.
type tapRequest struct {
	Key string `json:"key"`
}

// Server exposes the viewer page, the frame websocket and /metrics.
type Server struct {
	hub *Hub
	tap func(key string) error
	log zerolog.Logger
}

// NewServer creates a viewer server. tap is called for key clicks from the
// browser; it must be safe to call from any goroutine.
func NewServer(hub *Hub, tap func(key string) error, log zerolog.Logger) *Server {
	return &Server{hub: hub, tap: tap, log: log}
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleWS)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// ListenAndServe runs the viewer on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("viewer listening")
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "viewer page missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	frames := s.hub.subscribe()
	done := make(chan struct{})

	// Writer: push each published frame as one binary message.
	go func() {
		defer close(done)
		for frame := range frames {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		}
	}()

	// Reader: small JSON tap messages from the page.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req tapRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Key == "" {
			continue
		}
		if err := s.tap(req.Key); err != nil {
			s.log.Warn().Err(err).Str("key", req.Key).Msg("viewer tap rejected")
		}
	}

	// No sender can touch the channel once it is unsubscribed, so closing
	// it here safely ends the writer.
	s.hub.unsubscribe(frames)
	close(frames)
	conn.Close()
	<-done
}
