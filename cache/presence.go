// Package cache keeps short-TTL presence data in Redis: the latest
// published state per player and the member count per room. Entries
// expire on their own; the server only refreshes or deletes them.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"presence-lab/domain"
)

const (
	playerStateTTL = time.Hour
	roomCountTTL   = 5 * time.Minute
)

// PresenceCache handles all Redis operations for the presence data.
type PresenceCache struct {
	client *redis.Client
	log    *slog.Logger
}

func NewPresenceCache(client *redis.Client, log *slog.Logger) *PresenceCache {
	return &PresenceCache{client: client, log: log}
}

func playerKey(room domain.RoomID, conn domain.ConnectionID) string {
	return fmt.Sprintf("room:%s:player:%s", room, conn)
}

func countKey(room domain.RoomID) string {
	return fmt.Sprintf("room:%s:count", room)
}

// SetPlayerState caches the serialized state of one player.
func (c *PresenceCache) SetPlayerState(ctx context.Context, room domain.RoomID, conn domain.ConnectionID, state []byte) error {
	return c.client.Set(ctx, playerKey(room, conn), state, playerStateTTL).Err()
}

// PlayerState returns the cached state, or nil when the entry expired or
// never existed.
func (c *PresenceCache) PlayerState(ctx context.Context, room domain.RoomID, conn domain.ConnectionID) ([]byte, error) {
	value, err := c.client.Get(ctx, playerKey(room, conn)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SetRoomCount refreshes the cached member count of the room.
func (c *PresenceCache) SetRoomCount(ctx context.Context, room domain.RoomID, count int) error {
	return c.client.Set(ctx, countKey(room), count, roomCountTTL).Err()
}

// DeletePlayer removes the per-connection entry on disconnect.
func (c *PresenceCache) DeletePlayer(ctx context.Context, room domain.RoomID, conn domain.ConnectionID) error {
	return c.client.Del(ctx, playerKey(room, conn)).Err()
}

// Ping checks connectivity, used by the health endpoint.
func (c *PresenceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
