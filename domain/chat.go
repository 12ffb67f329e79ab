package domain

import "time"

// ChatMessage is one durably recorded chat line. Created once when a chat
// frame is dispatched, then immutable.
type ChatMessage struct {
	ID        string       `json:"id"`
	RoomID    RoomID       `json:"room_id"`
	ClientID  ConnectionID `json:"client_id"`
	Username  string       `json:"username"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
}

// RoomInfo is the room metadata pushed to the gateway on join and on
// member-count changes. The core never reads it back for broadcast
// decisions.
type RoomInfo struct {
	ID           RoomID    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	PlayerCount  int       `json:"player_count"`
}
