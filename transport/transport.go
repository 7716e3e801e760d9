package transport

import (
	"context"

	"github.com/emberbase/ember-go/cache"
	"github.com/emberbase/ember-go/types"
)

// Transport applies transaction chunks optimistically and forwards them to
// the remote server. Retry and backoff are the transport's own concern; the
// core imposes no retry policy.
type Transport interface {
	// Transact delivers chunks for one intended mutation. The returned error
	// is opaque to the core and propagates unmodified to the caller.
	Transact(ctx context.Context, appID string, chunks []types.TransactionChunk) error

	// Close shuts the transport down; subsequent Transact calls fail with
	// ErrTransportClosed
	Close() error
}

// AckFunc is invoked once per chunk when the server (or the loopback)
// confirms it. The client uses this to release pending optimistic snapshots.
type AckFunc func(chunk types.TransactionChunk)

// Loopback is an in-process transport: every chunk is confirmed
// synchronously, as if the server accepted it instantly. Used in tests and
// for offline operation. The optimistic local application is the client's
// job regardless of transport, so the loopback holds no cache state.
type Loopback struct {
	onAck AckFunc
}

// NewLoopback creates a loopback transport
func NewLoopback(onAck AckFunc) *Loopback {
	return &Loopback{onAck: onAck}
}

// Transact implements Transport by acknowledging each chunk immediately
func (l *Loopback) Transact(ctx context.Context, appID string, chunks []types.TransactionChunk) error {
	for _, chunk := range chunks {
		if l.onAck != nil {
			l.onAck(chunk)
		}
	}
	return nil
}

// Close implements Transport
func (l *Loopback) Close() error {
	return nil
}

// ApplyChunk replays a chunk against a local store the way the server would:
// upserts merge field change sets, deletes remove the entity, link and unlink
// edit the list-valued edge field named by the label.
func ApplyChunk(store *cache.MemoryStore, chunk types.TransactionChunk) {
	for _, op := range chunk.Ops {
		switch op.Kind {
		case types.OpUpsert:
			store.Merge(op.Namespace, op.EntityID, op.Fields)
		case types.OpDelete:
			store.Delete(op.EntityID)
		case types.OpLink:
			applyLink(store, op, true)
		case types.OpUnlink:
			applyLink(store, op, false)
		}
	}
}

// applyLink edits the edge list under op.Label on the source entity
func applyLink(store *cache.MemoryStore, op types.TransactionOp, add bool) {
	e, ok := store.Get(op.EntityID)
	var edges []types.Value
	if ok {
		if v, found := e.Get(op.Label); found {
			if list, isList := v.AsList(); isList {
				edges = list
			}
		}
	}

	target := types.String(string(op.TargetID))
	next := make([]types.Value, 0, len(edges)+1)
	for _, v := range edges {
		if !v.Equal(target) {
			next = append(next, v)
		}
	}
	if add {
		next = append(next, target)
	}

	store.Merge(op.Namespace, op.EntityID, map[string]types.Value{
		op.Label: types.List(next...),
	})
}
