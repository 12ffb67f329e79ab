package gateway

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"presence-lab/domain"
)

func TestStore_DegradesToNoOpsWithoutCollaborators(t *testing.T) {
	req := require.New(t)
	store := NewStore(nil, nil, nil, slog.Default())
	ctx := context.Background()

	// Every call succeeds and returns zero values.
	history, err := store.History(ctx, "r1", 20)
	req.NoError(err)
	req.Empty(history)

	req.NoError(store.SaveMessage(ctx, domain.ChatMessage{RoomID: "r1", Message: "hi"}))
	req.NoError(store.UpsertRoomInfo(ctx, domain.RoomInfo{ID: "r1"}))
	req.NoError(store.CachePlayerState(ctx, "r1", "a", []byte(`{}`)))
	req.NoError(store.UpdateRoomCount(ctx, "r1", 1))
	req.NoError(store.CleanupPlayer(ctx, "r1", "a"))
}
