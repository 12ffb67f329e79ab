// Package server is the connection/room broadcast engine: the WebSocket
// connection actors, the dispatch of validated inbound frames against the
// registries, the room fan-out and the disconnect cleanup.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"presence-lab/contract"
	"presence-lab/domain"
	errs "presence-lab/errors"
	"presence-lab/protocol"
	"presence-lab/registry"
)

// Dispatcher interprets validated messages against the registries,
// mutates state and fans the resulting event out to the rest of the
// room. The registries are mutated before any gateway call is issued, so
// a slow collaborator never blocks other connections.
type Dispatcher struct {
	peers        *registry.Peers
	rooms        *registry.Rooms
	gateway      contract.Gateway
	log          *slog.Logger
	historyLimit int
}

func NewDispatcher(peers *registry.Peers, rooms *registry.Rooms, gateway contract.Gateway, log *slog.Logger, historyLimit int) *Dispatcher {
	return &Dispatcher{
		peers:        peers,
		rooms:        rooms,
		gateway:      gateway,
		log:          log,
		historyLimit: historyLimit,
	}
}

// Dispatch handles one inbound frame from the connection. A rejected
// frame is answered with an Error frame on the same connection; the
// connection stays open either way.
func (d *Dispatcher) Dispatch(ctx context.Context, id domain.ConnectionID, queue contract.OutboundQueue, raw []byte) {
	msg, perr := protocol.DecodeClient(raw)
	if perr != nil {
		d.log.Warn("Rejected inbound frame", "connection", id, "error", perr)
		d.send(queue, protocol.Error{Message: perr.Error()})
		return
	}

	switch m := msg.(type) {
	case protocol.Join:
		d.join(ctx, id, queue, m)
	case protocol.Update:
		d.update(ctx, id, m)
	case protocol.Chat:
		d.chat(ctx, id, m)
	}
}

func (d *Dispatcher) join(ctx context.Context, id domain.ConnectionID, queue contract.OutboundQueue, m protocol.Join) {
	// The room is fixed for the lifetime of the connection.
	if _, ok := d.peers.Get(id); ok {
		d.log.Warn("Join dropped", "connection", id, "error", errs.ErrAlreadyInRoom)
		return
	}

	// Pointer fields are guaranteed non-nil past the codec's validation.
	room := domain.RoomID(*m.RoomID)
	state := domain.NewPlayerState(*m.Name, *m.Color)

	// Both registry mutations complete before any collaborator call.
	snapshot := d.rooms.Join(room, id, state)
	d.peers.Put(id, room, queue)

	history, err := d.gateway.History(ctx, room, d.historyLimit)
	if err != nil {
		d.log.Warn("Chat history unavailable", "room", room, "error", err)
		history = nil
	}
	if history == nil {
		history = []domain.ChatMessage{}
	}

	now := time.Now().UTC()
	info := domain.RoomInfo{
		ID:           room,
		Name:         string(room),
		CreatedAt:    now,
		LastActivity: now,
		PlayerCount:  len(snapshot),
	}
	if err := d.gateway.UpsertRoomInfo(ctx, info); err != nil {
		d.log.Warn("Room info upsert failed", "room", room, "error", err)
	}
	if err := d.gateway.UpdateRoomCount(ctx, room, len(snapshot)); err != nil {
		d.log.Warn("Room count refresh failed", "room", room, "error", err)
	}

	d.send(queue, protocol.Welcome{
		ClientID:    id,
		RoomState:   toRoomState(snapshot),
		ChatHistory: history,
	})
	d.broadcast(room, id, protocol.PlayerJoined{ClientID: id, State: state})
	d.log.Info("Connection joined room", "connection", id, "room", room, "members", len(snapshot))
}

func (d *Dispatcher) update(ctx context.Context, id domain.ConnectionID, m protocol.Update) {
	entry, ok := d.peers.Get(id)
	if !ok {
		d.log.Warn("Update dropped", "connection", id, "error", errs.ErrNotInRoom)
		return
	}
	if !d.rooms.SetState(entry.Room, id, m.State) {
		// Lost the race with disconnect cleanup.
		d.log.Debug("Update raced with disconnect", "connection", id, "room", entry.Room)
		return
	}

	if raw, err := json.Marshal(m.State); err == nil {
		if err := d.gateway.CachePlayerState(ctx, entry.Room, id, raw); err != nil {
			d.log.Warn("Player state cache failed", "connection", id, "error", err)
		}
	}

	d.broadcast(entry.Room, id, protocol.PlayerUpdate{ClientID: id, State: m.State})
}

func (d *Dispatcher) chat(ctx context.Context, id domain.ConnectionID, m protocol.Chat) {
	entry, ok := d.peers.Get(id)
	if !ok {
		d.log.Warn("Chat dropped", "connection", id, "error", errs.ErrNotInRoom)
		return
	}

	name := ""
	if state, ok := d.rooms.State(entry.Room, id); ok {
		name = state.Name
	}

	text := *m.Message
	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		RoomID:    entry.Room,
		ClientID:  id,
		Username:  name,
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
	if err := d.gateway.SaveMessage(ctx, msg); err != nil {
		d.log.Warn("Chat message persistence failed", "room", entry.Room, "error", err)
	}

	d.broadcast(entry.Room, id, protocol.ChatMessage{
		ClientID:  id,
		Name:      name,
		Message:   text,
		Timestamp: msg.Timestamp,
	})
}

// Disconnect runs the cleanup engine for the connection. It is a no-op
// when the connection never joined or was already cleaned, so calling it
// twice is harmless.
func (d *Dispatcher) Disconnect(ctx context.Context, id domain.ConnectionID) {
	entry, ok := d.peers.Remove(id)
	if !ok {
		return
	}

	remaining, _ := d.rooms.Leave(entry.Room, id)
	if remaining > 0 {
		if err := d.gateway.UpdateRoomCount(ctx, entry.Room, remaining); err != nil {
			d.log.Warn("Room count refresh failed", "room", entry.Room, "error", err)
		}
		d.broadcast(entry.Room, id, protocol.PlayerLeft{ClientID: id})
	} else {
		d.log.Info("Removed empty room", "room", entry.Room)
	}

	if err := d.gateway.CleanupPlayer(ctx, entry.Room, id); err != nil {
		d.log.Warn("Player cache cleanup failed", "connection", id, "error", err)
	}
	d.log.Info("Connection cleaned up", "connection", id, "room", entry.Room)
}

// broadcast delivers the event to every current member of the room except
// the originator. The event is serialized once; a member whose delivery
// handle is gone or whose queue is full is skipped, never aborting
// delivery to the rest.
func (d *Dispatcher) broadcast(room domain.RoomID, sender domain.ConnectionID, msg protocol.ServerMessage) {
	frame, err := protocol.EncodeServer(msg)
	if err != nil {
		d.log.Error("Broadcast serialization failed", "room", room, "error", err)
		return
	}

	for _, memberID := range d.rooms.MemberIDs(room) {
		if memberID == sender {
			continue
		}
		entry, ok := d.peers.Get(memberID)
		if !ok {
			// Raced with a concurrent disconnect.
			d.log.Debug("Member without delivery handle", "connection", memberID, "room", room)
			continue
		}
		if err := entry.Queue.Enqueue(frame); err != nil {
			d.log.Warn("Broadcast delivery skipped", "connection", memberID, "room", room, "error", err)
		}
	}
}

// send serializes and enqueues a frame for a single connection.
func (d *Dispatcher) send(queue contract.OutboundQueue, msg protocol.ServerMessage) {
	frame, err := protocol.EncodeServer(msg)
	if err != nil {
		d.log.Error("Message serialization failed", "error", err)
		return
	}
	if err := queue.Enqueue(frame); err != nil {
		d.log.Warn("Direct delivery failed", "error", err)
	}
}

func toRoomState(snapshot map[domain.ConnectionID]domain.PlayerState) []protocol.RoomStateEntry {
	return lo.MapToSlice(snapshot, func(id domain.ConnectionID, state domain.PlayerState) protocol.RoomStateEntry {
		return protocol.RoomStateEntry{ID: id, State: state}
	})
}
