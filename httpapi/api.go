// Package httpapi exposes the read-side HTTP surface next to the
// WebSocket endpoint: a health probe, the active room listing and
// chat history retrieval.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"presence-lab/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// RoomIndex is the slice of the room store the API reads from.
type RoomIndex interface {
	Active(window time.Duration) ([]domain.RoomInfo, error)
	Ping() error
}

// ChatLog is the slice of the message store the API reads from.
type ChatLog interface {
	History(room domain.RoomID, limit int) ([]domain.ChatMessage, error)
}

// CachePinger reports whether the presence cache is reachable.
type CachePinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	router     *httprouter.Router
	rooms      RoomIndex
	chat       ChatLog
	cache      CachePinger
	log        *slog.Logger
	roomWindow time.Duration
}

func NewAPI(rooms RoomIndex, chat ChatLog, cache CachePinger, log *slog.Logger, roomWindow time.Duration) *API {
	a := &API{
		router:     httprouter.New(),
		rooms:      rooms,
		chat:       chat,
		cache:      cache,
		log:        log,
		roomWindow: roomWindow,
	}
	a.router.GET("/health", a.handleHealth)
	a.router.GET("/rooms", a.handleRooms)
	a.router.POST("/chat/history", a.handleChatHistory)
	a.router.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	a.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	WebSocket string `json:"websocket"`
	Storage   string `json:"storage"`
	Cache     string `json:"cache"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	storageStatus := "healthy"
	if err := a.rooms.Ping(); err != nil {
		a.log.Warn("Storage health check failed", "error", err)
		storageStatus = "unhealthy"
	}

	cacheStatus := "healthy"
	if err := a.cache.Ping(r.Context()); err != nil {
		a.log.Warn("Cache health check failed", "error", err)
		cacheStatus = "unhealthy"
	}

	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services: healthServices{
			WebSocket: "healthy",
			Storage:   storageStatus,
			Cache:     cacheStatus,
		},
	}
	code := http.StatusOK
	if storageStatus != "healthy" || cacheStatus != "healthy" {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	a.writeJSON(w, code, resp)
}

type roomsResponse struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}

func (a *API) handleRooms(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	rooms, err := a.rooms.Active(a.roomWindow)
	if err != nil {
		a.log.Error("Active room listing failed", "error", err)
		http.Error(w, "failed to list rooms", http.StatusInternalServerError)
		return
	}
	if rooms == nil {
		rooms = []domain.RoomInfo{}
	}
	a.writeJSON(w, http.StatusOK, roomsResponse{Rooms: rooms})
}

type chatHistoryQuery struct {
	RoomID string `json:"room_id"`
	Limit  *int   `json:"limit"`
}

func (a *API) handleChatHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var query chatHistoryQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if query.RoomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	limit := defaultHistoryLimit
	if query.Limit != nil && *query.Limit > 0 {
		limit = min(*query.Limit, maxHistoryLimit)
	}

	messages, err := a.chat.History(domain.RoomID(query.RoomID), limit)
	if err != nil {
		a.log.Error("Chat history retrieval failed", "room", query.RoomID, "error", err)
		http.Error(w, "failed to load chat history", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	a.writeJSON(w, http.StatusOK, messages)
}

func (a *API) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("Response encoding failed", "error", err)
	}
}
