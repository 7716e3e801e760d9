// Package cache holds the client-side entity cache: the keyed store of
// entities, the access ledger, and the garbage collector that keeps both
// within configured bounds.
package cache

import (
	"sync"

	"github.com/emberbase/ember-go/types"
)

// Store is the keyed container of cached entities as seen by the garbage
// collector and the update path. Implementations must be safe for concurrent
// use.
type Store interface {
	// AllEntityIDs enumerates the ids currently present
	AllEntityIDs() map[types.EntityID]struct{}

	// Get returns the entity under id, or ok=false
	Get(id types.EntityID) (*types.Entity, bool)

	// Delete removes the entity under id. Deleting an absent id is a no-op;
	// the collector treats this as fire-and-forget.
	Delete(id types.EntityID)
}

// MemoryStore is the in-process Store the client reads through. Entities
// arriving from the server and optimistic local writes both land here; change
// notification flows through the attached observer registry.
type MemoryStore struct {
	mu        sync.RWMutex
	entities  map[types.EntityID]*types.Entity
	observers *ObserverRegistry
}

// NewMemoryStore creates an empty store with its own observer registry
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entities:  make(map[types.EntityID]*types.Entity),
		observers: NewObserverRegistry(),
	}
}

// Observers returns the store's observer registry
func (s *MemoryStore) Observers() *ObserverRegistry {
	return s.observers
}

// AllEntityIDs implements Store
func (s *MemoryStore) AllEntityIDs() map[types.EntityID]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[types.EntityID]struct{}, len(s.entities))
	for id := range s.entities {
		ids[id] = struct{}{}
	}
	return ids
}

// Get implements Store. The returned entity is shared; callers that intend
// to mutate must Clone first.
func (s *MemoryStore) Get(id types.EntityID) (*types.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	return e, ok
}

// Len returns the number of cached entities
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Put stores an entity snapshot, replacing any previous one
func (s *MemoryStore) Put(e *types.Entity) {
	s.mu.Lock()
	s.entities[e.ID] = e
	s.mu.Unlock()

	s.observers.notifyChanged(e)
}

// Merge applies a field change set to the entity under id, creating it when
// absent. Tombstoned fields are removed. This mirrors how the server applies
// an upsert, so the optimistic local state converges with the confirmed one.
func (s *MemoryStore) Merge(namespace string, id types.EntityID, fields map[string]types.Value) *types.Entity {
	s.mu.Lock()
	e, ok := s.entities[id]
	if !ok {
		e = types.NewEntity(namespace, id)
		s.entities[id] = e
	}
	for field, v := range fields {
		if v.IsAbsent() {
			e.Unset(field)
		} else {
			e.Set(field, v)
		}
	}
	s.mu.Unlock()

	s.observers.notifyChanged(e)
	return e
}

// Delete implements Store
func (s *MemoryStore) Delete(id types.EntityID) {
	s.mu.Lock()
	e, ok := s.entities[id]
	if ok {
		delete(s.entities, id)
	}
	s.mu.Unlock()

	if ok {
		s.observers.notifyDeleted(e)
	}
}
