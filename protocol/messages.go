// Package protocol defines the JSON wire messages exchanged with clients,
// the codec that maps raw text frames onto a closed set of variants, and
// the field-level validation applied before any message reaches the
// dispatch engine.
package protocol

import (
	"encoding/json"
	"time"

	"presence-lab/domain"
)

// Message type discriminants, carried in the "type" field of every frame.
const (
	TypeJoin   = "Join"
	TypeUpdate = "Update"
	TypeChat   = "Chat"

	TypeWelcome      = "Welcome"
	TypePlayerJoined = "PlayerJoined"
	TypePlayerLeft   = "PlayerLeft"
	TypePlayerUpdate = "PlayerUpdate"
	TypeChatMessage  = "ChatMessage"
	TypeError        = "Error"
)

// ClientMessage is the closed union of inbound frames. Anything outside
// these three variants is rejected by the codec.
type ClientMessage interface {
	messageType() string
}

// Join enters the named room. A connection joins at most once; the
// protocol has no leave or switch operation short of disconnecting.
// Fields are pointers so an absent field (malformed frame) stays
// distinguishable from a present-but-empty one (constraint violation).
type Join struct {
	RoomID *string `json:"room_id" validate:"required,min=1"`
	Name   *string `json:"name" validate:"required,min=1,max=50"`
	Color  *string `json:"color" validate:"required,hexrgb"`
}

// Update replaces the sender's published state wholesale.
type Update struct {
	State domain.PlayerState `json:"state"`
}

// Chat broadcasts a text line to the sender's room.
type Chat struct {
	Message *string `json:"message" validate:"required,min=1,max=1000"`
}

func (Join) messageType() string   { return TypeJoin }
func (Update) messageType() string { return TypeUpdate }
func (Chat) messageType() string   { return TypeChat }

// ServerMessage is the closed union of outbound frames.
type ServerMessage interface {
	messageType() string
}

// RoomStateEntry pairs a member id with its latest state. It is encoded
// as a two-element JSON array, matching the wire contract.
type RoomStateEntry struct {
	ID    domain.ConnectionID
	State domain.PlayerState
}

func (e RoomStateEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.State})
}

func (e *RoomStateEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.State)
}

// Welcome is sent to the joining connection alone: its id, a snapshot of
// the full room membership (itself included) and the recent chat history.
type Welcome struct {
	ClientID    domain.ConnectionID  `json:"client_id"`
	RoomState   []RoomStateEntry     `json:"room_state"`
	ChatHistory []domain.ChatMessage `json:"chat_history"`
}

// PlayerJoined announces a new member to the rest of the room.
type PlayerJoined struct {
	ClientID domain.ConnectionID `json:"client_id"`
	State    domain.PlayerState  `json:"state"`
}

// PlayerLeft announces a departure to the remaining members.
type PlayerLeft struct {
	ClientID domain.ConnectionID `json:"client_id"`
}

// PlayerUpdate carries a member's replaced state to the rest of the room.
type PlayerUpdate struct {
	ClientID domain.ConnectionID `json:"client_id"`
	State    domain.PlayerState  `json:"state"`
}

// ChatMessage is the broadcast form of a chat line.
type ChatMessage struct {
	ClientID  domain.ConnectionID `json:"client_id"`
	Name      string              `json:"name"`
	Message   string              `json:"message"`
	Timestamp time.Time           `json:"timestamp"`
}

// Error reports a rejected inbound frame back to its sender. The
// connection stays open.
type Error struct {
	Message string `json:"message"`
}

func (Welcome) messageType() string      { return TypeWelcome }
func (PlayerJoined) messageType() string { return TypePlayerJoined }
func (PlayerLeft) messageType() string   { return TypePlayerLeft }
func (PlayerUpdate) messageType() string { return TypePlayerUpdate }
func (ChatMessage) messageType() string  { return TypeChatMessage }
func (Error) messageType() string        { return TypeError }
