// Package client assembles the Ember pieces — store, garbage collector,
// transaction builder, transport — into the application-facing API.
package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/emberbase/ember-go/cache"
	"github.com/emberbase/ember-go/transport"
	"github.com/emberbase/ember-go/tx"
	"github.com/emberbase/ember-go/types"
)

// Client is one application's connection to an Ember app: a local reactive
// entity cache plus the mutation pipeline that keeps it synchronized with
// the server.
type Client struct {
	appID string
	store *cache.MemoryStore
	gc    *cache.Collector
	build *tx.Builder
	tp    transport.Transport
	log   *zap.SugaredLogger

	subs *subscriptionSet
}

// Options configures a client
type Options struct {
	// GC bounds for the entity cache; zero value disables collection
	GC cache.GCConfig

	// Transport delivers transactions; nil defaults to an in-process
	// loopback (offline operation). Replaceable later via SetTransport.
	Transport transport.Transport

	// Logger for the client and its collector; nil logs nothing
	Logger *zap.SugaredLogger
}

// New constructs a client. The collector is created but not started; call
// StartGC (or Start on the collector) once the application is ready.
func New(appID string, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	store := cache.NewMemoryStore()
	gc := cache.NewCollector(store, opts.GC, log.Named("cache.gc"))

	c := &Client{
		appID: appID,
		store: store,
		gc:    gc,
		build: tx.NewBuilder(store, tx.NewPendingStore()),
		log:   log,
		subs:  newSubscriptionSet(),
	}

	// Live subscriptions are the authoritative in-use source: every GC pass
	// asks for the current set rather than trusting incremental marks.
	gc.SetSacredRefreshFunc(func(ctx context.Context) (map[types.EntityID]struct{}, error) {
		return c.subs.entityIDs(), nil
	})

	if opts.Transport != nil {
		c.tp = opts.Transport
	} else {
		c.tp = transport.NewLoopback(c.HandleAck)
	}

	return c
}

// AppID returns the app id this client transacts against
func (c *Client) AppID() string {
	return c.appID
}

// Store returns the client's entity store
func (c *Client) Store() *cache.MemoryStore {
	return c.store
}

// GC returns the cache collector, for diagnostics and manual passes
func (c *Client) GC() *cache.Collector {
	return c.gc
}

// SetTransport swaps the transport (e.g. loopback -> websocket once
// connected). Not safe to call concurrently with Transact.
func (c *Client) SetTransport(tp transport.Transport) {
	c.tp = tp
}

// StartGC launches the periodic collection loop
func (c *Client) StartGC() {
	c.gc.Start()
}

// HandleAck releases the pending optimistic snapshot for a confirmed chunk.
// Wire this as the transport's AckFunc.
func (c *Client) HandleAck(chunk types.TransactionChunk) {
	c.build.Pending().Ack(chunk.EntityID)
}

// HandleRefresh folds server-pushed entity state into the local store.
// Wire this as the transport's refresh handler.
func (c *Client) HandleRefresh(e *types.Entity) {
	c.store.Put(e)
	c.gc.RecordAccessWithCost(e.ID, e.Cost())
}

// Transact applies chunks optimistically to the local store, records the
// access, and hands the chunks to the transport. Transport failures
// propagate unmodified; the optimistic application has already happened by
// then and reverting is the caller's decision.
func (c *Client) Transact(ctx context.Context, chunks ...types.TransactionChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, chunk := range chunks {
		transport.ApplyChunk(c.store, chunk)
		if e, ok := c.store.Get(chunk.EntityID); ok {
			c.gc.RecordAccessWithCost(chunk.EntityID, e.Cost())
		}
	}

	return c.tp.Transact(ctx, c.appID, chunks)
}

// Create inserts a new entity
func (c *Client) Create(ctx context.Context, e *types.Entity) error {
	chunk := c.build.Create(e)
	return c.Transact(ctx, *chunk)
}

// Update reads the entity, applies modify to a copy, and sends only the
// changed fields. A modify that changes nothing sends nothing. Fails with
// ErrEntityNotFound when the entity is unknown locally; the local cache is
// left untouched on any failure.
func (c *Client) Update(ctx context.Context, namespace string, id types.EntityID, modify func(*types.Entity)) error {
	chunk, err := c.build.Update(namespace, id, modify)
	if err != nil {
		return err
	}
	if chunk == nil {
		return nil // no-op update
	}
	return c.Transact(ctx, *chunk)
}

// UpdateFields sends caller-supplied fields without any read step
func (c *Client) UpdateFields(ctx context.Context, namespace string, id types.EntityID, fields map[string]types.Value) error {
	chunk := c.build.UpdateFields(namespace, id, fields)
	return c.Transact(ctx, *chunk)
}

// UpdateField sends a single field
func (c *Client) UpdateField(ctx context.Context, namespace string, id types.EntityID, field string, value types.Value) error {
	chunk := c.build.UpdateField(namespace, id, field, value)
	return c.Transact(ctx, *chunk)
}

// Delete removes an entity
func (c *Client) Delete(ctx context.Context, namespace string, id types.EntityID) error {
	chunk := c.build.Delete(namespace, id)
	return c.Transact(ctx, *chunk)
}

// Link attaches a labelled edge between two entities
func (c *Client) Link(ctx context.Context, namespace string, id types.EntityID, label, targetNamespace string, targetID types.EntityID) error {
	chunk := c.build.Link(namespace, id, label, targetNamespace, targetID)
	return c.Transact(ctx, *chunk)
}

// Unlink detaches a labelled edge
func (c *Client) Unlink(ctx context.Context, namespace string, id types.EntityID, label, targetNamespace string, targetID types.EntityID) error {
	chunk := c.build.Unlink(namespace, id, label, targetNamespace, targetID)
	return c.Transact(ctx, *chunk)
}

// Get reads an entity from the local cache, refreshing its access time
func (c *Client) Get(id types.EntityID) (*types.Entity, bool) {
	e, ok := c.store.Get(id)
	if ok {
		c.gc.RecordAccess(id)
	}
	return e, ok
}

// Subscribe marks entities as in active use; they are exempt from eviction
// until the subscription closes
func (c *Client) Subscribe(ids ...types.EntityID) *Subscription {
	sub := c.subs.add(ids)
	c.gc.MarkSacred(ids...)
	c.gc.RecordAccessBulk(ids)
	return sub
}

// Close stops the collector and shuts the transport down
func (c *Client) Close() error {
	c.gc.Stop()
	return c.tp.Close()
}
