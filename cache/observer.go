package cache

import (
	"sync"

	"github.com/emberbase/ember-go/types"
)

// EntityObserver is notified when cached entities change or disappear.
// Implementations MUST be safe for concurrent use: each callback runs in its
// own goroutine, fire-and-forget, with no error propagation back to the
// caller. The *types.Entity is shared across all observers — do not mutate it.
type EntityObserver interface {
	OnEntityChanged(e *types.Entity)
	OnEntityDeleted(e *types.Entity)
}

// ObserverRegistry tracks the observers of one store. Unlike a global
// registry, each store owns its own, so two clients in one process never see
// each other's notifications.
type ObserverRegistry struct {
	mu        sync.RWMutex
	observers []EntityObserver
}

// NewObserverRegistry creates an empty registry
func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{}
}

// Register adds an observer that will be notified of all entity changes
func (r *ObserverRegistry) Register(observer EntityObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, observer)
}

// Unregister removes an observer from the registry
func (r *ObserverRegistry) Unregister(observer EntityObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.observers {
		if o == observer {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Clear removes all observers (useful for testing)
func (r *ObserverRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = nil
}

// notifyChanged spawns a goroutine per observer. The entity may be evicted
// by the collector immediately after this returns — observers must not assume
// it is still cached.
func (r *ObserverRegistry) notifyChanged(e *types.Entity) {
	for _, observer := range r.snapshot() {
		go observer.OnEntityChanged(e)
	}
}

// notifyDeleted spawns a goroutine per observer
func (r *ObserverRegistry) notifyDeleted(e *types.Entity) {
	for _, observer := range r.snapshot() {
		go observer.OnEntityDeleted(e)
	}
}

func (r *ObserverRegistry) snapshot() []EntityObserver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	observers := make([]EntityObserver, len(r.observers))
	copy(observers, r.observers)
	return observers
}
