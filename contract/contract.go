package contract

import (
	"context"
	"reflect"

	"presence-lab/domain"
)

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// OutboundQueue is the delivery handle of one connection. Enqueue is
// non-blocking: a full queue returns errors.ErrQueueFull and a closed one
// errors.ErrQueueClosed, so a slow peer never stalls the caller.
type OutboundQueue interface {
	Enqueue(frame []byte) error
}

// Gateway is the persistence/cache collaborator consumed by the dispatch
// engine. Every call is best-effort from the core's point of view: the
// returned error is logged and never aborts the protocol operation in
// flight.
type Gateway interface {
	History(ctx context.Context, room domain.RoomID, limit int) ([]domain.ChatMessage, error)
	SaveMessage(ctx context.Context, msg domain.ChatMessage) error
	UpsertRoomInfo(ctx context.Context, info domain.RoomInfo) error
	CachePlayerState(ctx context.Context, room domain.RoomID, conn domain.ConnectionID, state []byte) error
	UpdateRoomCount(ctx context.Context, room domain.RoomID, count int) error
	CleanupPlayer(ctx context.Context, room domain.RoomID, conn domain.ConnectionID) error
}
