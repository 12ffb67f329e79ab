// Package gateway composes the durable store and the presence cache into
// the single collaborator interface the dispatch engine consumes. Either
// side may be absent (nil), in which case its calls degrade to no-ops;
// the core treats every call as best-effort anyway.
package gateway

import (
	"context"
	"log/slog"

	"presence-lab/cache"
	"presence-lab/domain"
	"presence-lab/storage"
)

type Store struct {
	messages *storage.MessageRepository
	rooms    *storage.RoomRepository
	presence *cache.PresenceCache
	log      *slog.Logger
}

func NewStore(messages *storage.MessageRepository, rooms *storage.RoomRepository, presence *cache.PresenceCache, log *slog.Logger) *Store {
	return &Store{messages: messages, rooms: rooms, presence: presence, log: log}
}

func (s *Store) History(_ context.Context, room domain.RoomID, limit int) ([]domain.ChatMessage, error) {
	if s.messages == nil {
		return nil, nil
	}
	return s.messages.History(room, limit)
}

func (s *Store) SaveMessage(_ context.Context, msg domain.ChatMessage) error {
	if s.messages == nil {
		return nil
	}
	return s.messages.Store(msg)
}

func (s *Store) UpsertRoomInfo(_ context.Context, info domain.RoomInfo) error {
	if s.rooms == nil {
		return nil
	}
	return s.rooms.Upsert(info)
}

func (s *Store) CachePlayerState(ctx context.Context, room domain.RoomID, conn domain.ConnectionID, state []byte) error {
	if s.presence == nil {
		return nil
	}
	return s.presence.SetPlayerState(ctx, room, conn, state)
}

func (s *Store) UpdateRoomCount(ctx context.Context, room domain.RoomID, count int) error {
	if s.presence == nil {
		return nil
	}
	return s.presence.SetRoomCount(ctx, room, count)
}

func (s *Store) CleanupPlayer(ctx context.Context, room domain.RoomID, conn domain.ConnectionID) error {
	if s.presence == nil {
		return nil
	}
	return s.presence.DeletePlayer(ctx, room, conn)
}
