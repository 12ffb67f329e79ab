package registry

import (
	"sync"

	"presence-lab/contract"
	"presence-lab/domain"
)

// PeerEntry binds a live connection to its room and its delivery handle.
// The room is fixed for the lifetime of the connection; the protocol has
// no switch-room operation.
type PeerEntry struct {
	Room  domain.RoomID
	Queue contract.OutboundQueue
}

type peerShard struct {
	mu      sync.RWMutex
	entries map[domain.ConnectionID]PeerEntry
}

// Peers is the concurrent connection -> (room, queue) registry.
type Peers struct {
	shards [shardCount]peerShard
}

func NewPeers() *Peers {
	p := &Peers{}
	for i := range p.shards {
		p.shards[i].entries = make(map[domain.ConnectionID]PeerEntry)
	}
	return p
}

func (p *Peers) shard(id domain.ConnectionID) *peerShard {
	return &p.shards[shardIndex(string(id))]
}

// Put registers the connection. It is called exactly once per connection,
// on a validated join.
func (p *Peers) Put(id domain.ConnectionID, room domain.RoomID, queue contract.OutboundQueue) {
	s := p.shard(id)
	s.mu.Lock()
	s.entries[id] = PeerEntry{Room: room, Queue: queue}
	s.mu.Unlock()
}

func (p *Peers) Get(id domain.ConnectionID) (PeerEntry, bool) {
	s := p.shard(id)
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	return entry, ok
}

// Remove deletes the entry and reports whether it existed, so disconnect
// cleanup is naturally idempotent.
func (p *Peers) Remove(id domain.ConnectionID) (PeerEntry, bool) {
	s := p.shard(id)
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	return entry, ok
}

// Len counts registered connections across all shards.
func (p *Peers) Len() int {
	total := 0
	for i := range p.shards {
		p.shards[i].mu.RLock()
		total += len(p.shards[i].entries)
		p.shards[i].mu.RUnlock()
	}
	return total
}
