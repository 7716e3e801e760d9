package tx

import (
	"github.com/emberbase/ember-go/cache"
	"github.com/emberbase/ember-go/diff"
	"github.com/emberbase/ember-go/errors"
	"github.com/emberbase/ember-go/types"
)

// Builder translates one intended operation into one transaction chunk.
// It never re-derives state from the rest of the cached collection: each
// operation needs at most the target entity's own current snapshot.
//
// A Builder is safe for concurrent use; each call operates on its own entity
// snapshot with no shared mutable state beyond the pending store's own lock.
type Builder struct {
	store   cache.Store
	pending *PendingStore
}

// NewBuilder creates a builder reading through the given store
func NewBuilder(store cache.Store, pending *PendingStore) *Builder {
	if pending == nil {
		pending = NewPendingStore()
	}
	return &Builder{
		store:   store,
		pending: pending,
	}
}

// Pending returns the builder's pending snapshot store, for acknowledgement
// wiring
func (b *Builder) Pending() *PendingStore {
	return b.pending
}

// Create builds the chunk inserting a new entity from its full field set
func (b *Builder) Create(e *types.Entity) *types.TransactionChunk {
	snapshot := e.Clone()
	b.pending.Put(snapshot)

	chunk := types.NewChunk(e.Namespace, e.ID,
		types.NewUpsertOp(e.Namespace, e.ID, snapshot.Fields))
	return &chunk
}

// CreateFrom builds a create chunk from a FieldMapper implementation.
// A ToFields failure surfaces as an encoding error and nothing is staged.
func (b *Builder) CreateFrom(namespace string, id types.EntityID, m types.FieldMapper) (*types.TransactionChunk, error) {
	fields, err := m.ToFields()
	if err != nil {
		return nil, errors.WrapEncodingFailed(err, "failed to flatten entity "+string(id))
	}

	e := &types.Entity{Namespace: namespace, ID: id, Fields: fields}
	return b.Create(e), nil
}

// Update reads the entity's current state, applies modify to an in-memory
// copy, and builds a chunk containing only the changed fields. The read
// prefers an in-flight optimistic snapshot over the observed store, so rapid
// create-then-update sequences never operate on stale data.
//
// Returns (nil, nil) when modify changes nothing: no chunk is built and no
// traffic should occur. Returns ErrEntityNotFound when no snapshot of the
// entity exists anywhere locally.
func (b *Builder) Update(namespace string, id types.EntityID, modify func(*types.Entity)) (*types.TransactionChunk, error) {
	before, ok := b.pending.Get(id)
	if !ok {
		before, ok = b.store.Get(id)
	}
	if !ok {
		return nil, errors.NewEntityNotFound(namespace, string(id))
	}

	after := before.Clone()
	modify(after)

	changes := diff.Fields(before.Fields, after.Fields)
	if len(changes) == 0 {
		return nil, nil
	}

	b.pending.Put(after)

	chunk := types.NewChunk(namespace, id,
		types.NewUpsertOp(namespace, id, changes))
	return &chunk, nil
}

// UpdateFields builds an upsert directly from caller-supplied fields with no
// read step at all — the safest form for high-contention fields because it
// never risks operating on a stale read. Cannot fail locally.
func (b *Builder) UpdateFields(namespace string, id types.EntityID, fields map[string]types.Value) *types.TransactionChunk {
	b.pending.MergeFields(id, fields)

	chunk := types.NewChunk(namespace, id,
		types.NewUpsertOp(namespace, id, fields))
	return &chunk
}

// UpdateField builds an upsert for a single field
func (b *Builder) UpdateField(namespace string, id types.EntityID, field string, value types.Value) *types.TransactionChunk {
	return b.UpdateFields(namespace, id, map[string]types.Value{field: value})
}

// Delete builds the chunk removing an entity. Any pending snapshot is
// discarded — there is nothing left to reconcile against.
func (b *Builder) Delete(namespace string, id types.EntityID) *types.TransactionChunk {
	b.pending.Drop(id)

	chunk := types.NewChunk(namespace, id,
		types.NewDeleteOp(namespace, id))
	return &chunk
}

// Link builds the chunk attaching a labelled edge to a target entity.
// Does not recurse into the target's own fields.
func (b *Builder) Link(namespace string, id types.EntityID, label, targetNamespace string, targetID types.EntityID) *types.TransactionChunk {
	chunk := types.NewChunk(namespace, id,
		types.NewLinkOp(namespace, id, label, targetNamespace, targetID))
	return &chunk
}

// Unlink builds the chunk detaching a labelled edge
func (b *Builder) Unlink(namespace string, id types.EntityID, label, targetNamespace string, targetID types.EntityID) *types.TransactionChunk {
	chunk := types.NewChunk(namespace, id,
		types.NewUnlinkOp(namespace, id, label, targetNamespace, targetID))
	return &chunk
}
