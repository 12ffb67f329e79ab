package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"presence-lab/domain"
)

type nopQueue struct{}

func (nopQueue) Enqueue([]byte) error { return nil }

func Test_Peers_Put_Get_Remove(t *testing.T) {
	req := require.New(t)
	peers := NewPeers()
	id := domain.ConnectionID(uuid.NewString())
	queue := nopQueue{}

	// Given an empty registry
	req.Zero(peers.Len())

	// When a connection is registered
	peers.Put(id, "r1", queue)

	// Then it resolves to its room and queue
	entry, ok := peers.Get(id)
	req.True(ok)
	req.Equal(domain.RoomID("r1"), entry.Room)
	req.Equal(queue, entry.Queue)

	// And removing it twice only succeeds once
	_, ok = peers.Remove(id)
	req.True(ok)
	_, ok = peers.Remove(id)
	req.False(ok)
	req.Zero(peers.Len())
}

func Test_Rooms_Created_Lazily_And_Removed_When_Empty(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	alice := domain.ConnectionID(uuid.NewString())
	bob := domain.ConnectionID(uuid.NewString())

	// Given no rooms
	req.Zero(rooms.Count("r1"))

	// When two members join
	snapshot := rooms.Join("r1", alice, domain.NewPlayerState("Alice", "#FF0000"))
	req.Len(snapshot, 1)
	snapshot = rooms.Join("r1", bob, domain.NewPlayerState("Bob", "#00FF00"))

	// Then the second snapshot contains both
	req.Len(snapshot, 2)
	req.Contains(snapshot, alice)
	req.Contains(snapshot, bob)

	// When both leave
	remaining, ok := rooms.Leave("r1", alice)
	req.True(ok)
	req.Equal(1, remaining)
	remaining, ok = rooms.Leave("r1", bob)
	req.True(ok)
	req.Zero(remaining)

	// Then the room entry is gone entirely
	req.Zero(rooms.Count("r1"))
	req.Nil(rooms.MemberIDs("r1"))
}

func Test_Rooms_SetState_Replaces_Wholesale(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	alice := domain.ConnectionID(uuid.NewString())

	rooms.Join("r1", alice, domain.NewPlayerState("Alice", "#FF0000"))

	moved := domain.NewPlayerState("Alice", "#FF0000")
	moved.Position = domain.Vec3{10, 0, 5}
	moved.Animation = "run"
	req.True(rooms.SetState("r1", alice, moved))

	state, ok := rooms.State("r1", alice)
	req.True(ok)
	req.Equal(moved, state)

	// Updating an unknown member or room reports the race, not a panic.
	req.False(rooms.SetState("r1", "ghost", moved))
	req.False(rooms.SetState("nowhere", alice, moved))
}

func Test_Rooms_Leave_Absent_Member_Is_Noop(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	alice := domain.ConnectionID(uuid.NewString())

	rooms.Join("r1", alice, domain.NewPlayerState("Alice", "#FF0000"))

	_, ok := rooms.Leave("r1", "ghost")
	req.False(ok)
	req.Equal(1, rooms.Count("r1"))
}

// The pairing invariant: every connection in the peer registry belongs to
// exactly one room's membership, and vice versa, after any interleaving of
// joins and leaves.
func Test_Registries_Pairing_Invariant_Under_Concurrency(t *testing.T) {
	req := require.New(t)
	peers := NewPeers()
	rooms := NewRooms()

	const perRoom = 20
	roomIDs := []domain.RoomID{"alpha", "beta", "gamma", "delta"}

	var wg sync.WaitGroup
	for _, room := range roomIDs {
		for i := 0; i < perRoom; i++ {
			wg.Add(1)
			go func(room domain.RoomID, i int) {
				defer wg.Done()
				id := domain.ConnectionID(fmt.Sprintf("%s-%d", room, i))
				state := domain.NewPlayerState("P", "#123456")

				rooms.Join(room, id, state)
				peers.Put(id, room, nopQueue{})

				state.Position = domain.Vec3{float64(i), 0, 0}
				rooms.SetState(room, id, state)

				// Half of the members disconnect again.
				if i%2 == 0 {
					entry, ok := peers.Remove(id)
					if ok {
						rooms.Leave(entry.Room, id)
					}
				}
			}(room, i)
		}
	}
	wg.Wait()

	req.Equal(peers.Len(), rooms.Len())
	for _, room := range roomIDs {
		for _, id := range rooms.MemberIDs(room) {
			entry, ok := peers.Get(id)
			req.True(ok)
			req.Equal(room, entry.Room)
		}
	}
}
