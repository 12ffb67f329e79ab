package registry

import (
	"sync"

	"presence-lab/domain"
)

type roomShard struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[domain.ConnectionID]domain.PlayerState
}

// Rooms is the concurrent room -> membership registry. A room entry is
// created lazily on the first join and removed the moment its last member
// leaves; there is no explicit create or destroy operation.
type Rooms struct {
	shards [shardCount]roomShard
}

func NewRooms() *Rooms {
	r := &Rooms{}
	for i := range r.shards {
		r.shards[i].rooms = make(map[domain.RoomID]map[domain.ConnectionID]domain.PlayerState)
	}
	return r
}

func (r *Rooms) shard(room domain.RoomID) *roomShard {
	return &r.shards[shardIndex(string(room))]
}

// Join inserts the member with its initial state and returns a snapshot
// of the membership including the new member. Insert and snapshot happen
// under one shard lock so the snapshot is consistent.
func (r *Rooms) Join(room domain.RoomID, id domain.ConnectionID, state domain.PlayerState) map[domain.ConnectionID]domain.PlayerState {
	s := r.shard(room)
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.rooms[room]
	if !ok {
		members = make(map[domain.ConnectionID]domain.PlayerState)
		s.rooms[room] = members
	}
	members[id] = state

	snapshot := make(map[domain.ConnectionID]domain.PlayerState, len(members))
	for memberID, memberState := range members {
		snapshot[memberID] = memberState
	}
	return snapshot
}

// SetState replaces the member's state wholesale. It reports false when
// the room or the member is gone, which callers treat as a disconnect
// race, not an error.
func (r *Rooms) SetState(room domain.RoomID, id domain.ConnectionID, state domain.PlayerState) bool {
	s := r.shard(room)
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[id]; !ok {
		return false
	}
	members[id] = state
	return true
}

// State returns the member's latest published state.
func (r *Rooms) State(room domain.RoomID, id domain.ConnectionID) (domain.PlayerState, bool) {
	s := r.shard(room)
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.rooms[room]
	if !ok {
		return domain.PlayerState{}, false
	}
	state, ok := members[id]
	return state, ok
}

// MemberIDs snapshots the current membership of the room.
func (r *Rooms) MemberIDs(room domain.RoomID) []domain.ConnectionID {
	s := r.shard(room)
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.rooms[room]
	if !ok {
		return nil
	}
	ids := make([]domain.ConnectionID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the room's member count, zero for an absent room.
func (r *Rooms) Count(room domain.RoomID) int {
	s := r.shard(room)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[room])
}

// Leave removes the member and deletes the room entry entirely when it
// empties, so no stale rooms accumulate. It returns the remaining member
// count and whether the member was present.
func (r *Rooms) Leave(room domain.RoomID, id domain.ConnectionID) (int, bool) {
	s := r.shard(room)
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.rooms[room]
	if !ok {
		return 0, false
	}
	if _, ok := members[id]; !ok {
		return len(members), false
	}
	delete(members, id)
	remaining := len(members)
	if remaining == 0 {
		delete(s.rooms, room)
	}
	return remaining, true
}

// Counts snapshots the member count of every live room. Each shard is
// locked independently, so the snapshot is only per-room consistent.
func (r *Rooms) Counts() map[domain.RoomID]int {
	counts := make(map[domain.RoomID]int)
	for i := range r.shards {
		r.shards[i].mu.RLock()
		for room, members := range r.shards[i].rooms {
			counts[room] = len(members)
		}
		r.shards[i].mu.RUnlock()
	}
	return counts
}

// Len counts members across every room, used to check the pairing
// invariant with the peer registry.
func (r *Rooms) Len() int {
	total := 0
	for i := range r.shards {
		r.shards[i].mu.RLock()
		for _, members := range r.shards[i].rooms {
			total += len(members)
		}
		r.shards[i].mu.RUnlock()
	}
	return total
}
