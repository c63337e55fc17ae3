// Package registry holds the live session servers ("rooms") for every
// document with at least one connected client (spec §9: "a concurrent map
// keyed by documentId"). It shards that map across a fixed number of
// siphash-hashed buckets, each independently mutex-guarded, so that rooms
// for unrelated documents never contend on one global lock (spec §5:
// "different rooms may execute in parallel").
package registry

import (
	"sync"

	"github.com/dchest/siphash"

	"github.com/rbitr/altdocs/internal/room"
)

const shardCount = 32

// just two fixed random values, stable across process restarts so the
// shard a given documentId lands in never moves.
const (
	shardKey0 = 0x5d1ec810a5f0e4b2
	shardKey1 = 0xfebed702c3a19d6e
)

type shard struct {
	mu    sync.Mutex
	rooms map[string]*room.Room
}

// Registry is the process-wide collection of live rooms.
type Registry struct {
	shards [shardCount]*shard
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{rooms: make(map[string]*room.Room)}
	}
	return r
}

func (r *Registry) shardFor(documentID string) *shard {
	hash := siphash.Hash(shardKey0, shardKey1, []byte(documentID))
	return r.shards[hash%uint64(shardCount)]
}

// GetOrCreate returns the live room for documentID, creating it via
// factory if this is the first participant. factory is only invoked while
// the shard lock is held, so two concurrent joins for the same document
// can never race into creating two rooms.
func (r *Registry) GetOrCreate(documentID string, factory func() (*room.Room, error)) (*room.Room, bool, error) {
	s := r.shardFor(documentID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if rm, ok := s.rooms[documentID]; ok {
		return rm, false, nil
	}
	rm, err := factory()
	if err != nil {
		return nil, false, err
	}
	s.rooms[documentID] = rm
	return rm, true, nil
}

// Get returns the live room for documentID, if any.
func (r *Registry) Get(documentID string) (*room.Room, bool) {
	s := r.shardFor(documentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[documentID]
	return rm, ok
}

// Remove drops documentID from the registry. Called once a room reports
// itself empty (spec §4.3 lifecycle: destroyed when its last client
// disconnects).
func (r *Registry) Remove(documentID string) {
	s := r.shardFor(documentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, documentID)
}

// Count returns the number of live rooms, for /api/stats-style reporting.
func (r *Registry) Count() int {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.rooms)
		s.mu.Unlock()
	}
	return n
}
