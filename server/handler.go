package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server accepts WebSocket upgrades and hands each accepted connection to
// its own actor. One goroutine runs the send loop; the receive loop runs
// in the handler goroutine net/http already dedicates to the connection.
type Server struct {
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	log        *slog.Logger

	queueSize      int
	maxMessageSize int64
}

func NewServer(dispatcher *Dispatcher, allowedOrigins []string, queueSize int, maxMessageSize int64, log *slog.Logger) *Server {
	s := &Server{
		dispatcher:     dispatcher,
		log:            log,
		queueSize:      queueSize,
		maxMessageSize: maxMessageSize,
	}
	origins := newOriginPolicy(allowedOrigins, log)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.check,
	}
	return s
}

// ServeHTTP implements the http.Handler interface for the WebSocket
// endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "WebSocket endpoint only accepts GET requests", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(conn, s.dispatcher, s.queueSize, s.maxMessageSize, s.log)
	s.log.Info("Connection accepted", "connection", client.id, "remote", r.RemoteAddr)

	go client.writePump()
	client.readPump(r.Context())
}
