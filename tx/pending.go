// Package tx turns application-level mutation intents into wire-level
// transaction chunks, one chunk per intent, without inspecting sibling
// entities.
package tx

import (
	"sync"

	"github.com/emberbase/ember-go/types"
)

// PendingStore holds the latest locally-applied-but-unconfirmed snapshot per
// entity. Reading "current state" before an update is a designed race: an
// optimistic write may not yet be visible through the observed store, so the
// update path prefers these snapshots during rapid create-then-update
// sequences.
//
// Each snapshot carries an in-flight count; the snapshot is dropped once
// every transaction that produced it has been acknowledged.
type PendingStore struct {
	mu      sync.Mutex
	entries map[types.EntityID]*pendingEntry
}

type pendingEntry struct {
	entity   *types.Entity
	inflight int
}

// NewPendingStore creates an empty pending store
func NewPendingStore() *PendingStore {
	return &PendingStore{
		entries: make(map[types.EntityID]*pendingEntry),
	}
}

// Put replaces the entity's pending snapshot and bumps the in-flight count
func (p *PendingStore) Put(e *types.Entity) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[e.ID]
	if !ok {
		entry = &pendingEntry{}
		p.entries[e.ID] = entry
	}
	entry.entity = e
	entry.inflight++
}

// Get returns the pending snapshot for id, or ok=false
func (p *PendingStore) Get(id types.EntityID) (*types.Entity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[id]
	if !ok {
		return nil, false
	}
	return entry.entity, true
}

// MergeFields folds a field change set into the pending snapshot when one
// exists. Field-only updates skip the read step entirely, but a later
// modify-function update must still see their effect.
//
// The merge is copy-on-write: snapshots handed out by Get are read elsewhere
// without this lock, so the existing entity is never mutated in place.
func (p *PendingStore) MergeFields(id types.EntityID, fields map[string]types.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[id]
	if !ok {
		return
	}
	merged := entry.entity.Clone()
	for field, v := range fields {
		if v.IsAbsent() {
			merged.Unset(field)
		} else {
			merged.Set(field, v)
		}
	}
	entry.entity = merged
}

// Ack marks one in-flight transaction for id confirmed. The snapshot is
// dropped when nothing remains in flight — from then on the observed store is
// authoritative again.
func (p *PendingStore) Ack(id types.EntityID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[id]
	if !ok {
		return
	}
	entry.inflight--
	if entry.inflight <= 0 {
		delete(p.entries, id)
	}
}

// Drop discards the entity's pending snapshot outright (failed send, entity
// deletion)
func (p *PendingStore) Drop(id types.EntityID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, id)
}

// Len returns the number of entities with unconfirmed snapshots
func (p *PendingStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
