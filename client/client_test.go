package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberbase/ember-go/cache"
	"github.com/emberbase/ember-go/errors"
	"github.com/emberbase/ember-go/types"
)

// countingTransport records every Transact call
type countingTransport struct {
	calls  int
	chunks []types.TransactionChunk
	err    error
}

func (ct *countingTransport) Transact(ctx context.Context, appID string, chunks []types.TransactionChunk) error {
	ct.calls++
	ct.chunks = append(ct.chunks, chunks...)
	return ct.err
}

func (ct *countingTransport) Close() error { return nil }

func newTestClient() *Client {
	return New("test-app", Options{GC: cache.DefaultGCConfig()})
}

func TestCreateLandsInStore(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	e := types.NewEntity("tasks", "t1")
	e.Set("title", types.String("write tests"))
	require.NoError(t, c.Create(context.Background(), e))

	got, ok := c.Get("t1")
	require.True(t, ok)
	title, _ := got.Fields["title"].AsString()
	assert.Equal(t, "write tests", title)

	// The loopback acks synchronously, so nothing stays pending
	assert.Zero(t, c.build.Pending().Len())
	assert.Equal(t, 1, c.GC().Diagnostics().TrackedEntities)
}

func TestUpdateFlowsDiffOnly(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	e.Set("words", types.Int(100))
	require.NoError(t, c.Create(context.Background(), e))

	ct := &countingTransport{}
	c.SetTransport(ct)

	err := c.Update(context.Background(), "docs", "d1", func(doc *types.Entity) {
		doc.Set("text", types.String("final"))
	})
	require.NoError(t, err)

	require.Equal(t, 1, ct.calls)
	require.Len(t, ct.chunks, 1)
	fields := ct.chunks[0].Ops[0].Fields
	require.Len(t, fields, 1, "only the changed field travels")

	// The optimistic application is already visible locally
	got, _ := c.Get("d1")
	text, _ := got.Fields["text"].AsString()
	assert.Equal(t, "final", text)
	words, _ := got.Fields["words"].AsInt()
	assert.Equal(t, int64(100), words)
}

func TestUpdateNoChangeSendsNothing(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	require.NoError(t, c.Create(context.Background(), e))

	ct := &countingTransport{}
	c.SetTransport(ct)

	err := c.Update(context.Background(), "docs", "d1", func(doc *types.Entity) {
		doc.Set("text", types.String("draft"))
	})
	require.NoError(t, err)
	assert.Zero(t, ct.calls, "identity update causes no traffic")
}

func TestUpdateUnknownEntityLeavesCacheUntouched(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	ct := &countingTransport{}
	c.SetTransport(ct)

	err := c.Update(context.Background(), "docs", "missing", func(doc *types.Entity) {
		doc.Set("text", types.String("x"))
	})
	assert.True(t, errors.IsEntityNotFound(err))
	assert.Zero(t, ct.calls)
	assert.Zero(t, c.Store().Len())
}

func TestTransportFailurePropagates(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	ct := &countingTransport{err: errors.ErrNotConnected}
	c.SetTransport(ct)

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	err := c.Create(context.Background(), e)
	assert.True(t, errors.Is(err, errors.ErrNotConnected))

	// The optimistic write has already landed; reverting is the caller's call
	_, ok := c.Get("d1")
	assert.True(t, ok)
}

func TestDeleteRemovesLocally(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	require.NoError(t, c.Create(context.Background(), types.NewEntity("docs", "d1")))
	require.NoError(t, c.Delete(context.Background(), "docs", "d1"))

	_, ok := c.Get("d1")
	assert.False(t, ok)
}

func TestLinkRecordsEdgeOptimistically(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	require.NoError(t, c.Create(context.Background(), types.NewEntity("docs", "d1")))
	require.NoError(t, c.Link(context.Background(), "docs", "d1", "author", "users", "u1"))

	e, _ := c.Get("d1")
	edges, ok := e.Fields["author"].AsList()
	require.True(t, ok)
	assert.Len(t, edges, 1)

	require.NoError(t, c.Unlink(context.Background(), "docs", "d1", "author", "users", "u1"))
	e, _ = c.Get("d1")
	edges, _ = e.Fields["author"].AsList()
	assert.Empty(t, edges)
}

func TestSubscribeProtectsFromEviction(t *testing.T) {
	c := New("test-app", Options{GC: cache.GCConfig{MaxEntities: 1}})
	defer c.Close()

	require.NoError(t, c.Create(context.Background(), types.NewEntity("tasks", "a")))
	require.NoError(t, c.Create(context.Background(), types.NewEntity("tasks", "b")))
	require.NoError(t, c.Create(context.Background(), types.NewEntity("tasks", "c")))

	sub := c.Subscribe("a", "b")
	c.GC().RunGC(context.Background())

	_, okA := c.Store().Get("a")
	_, okB := c.Store().Get("b")
	assert.True(t, okA, "subscribed entity survives")
	assert.True(t, okB, "subscribed entity survives")
	_, okC := c.Store().Get("c")
	assert.False(t, okC, "unsubscribed entity pays for the pressure")

	// Closing the subscription makes the entities evictable again
	sub.Close()
	c.GC().RunGC(context.Background())
	assert.Equal(t, 1, c.Store().Len())
}

func TestSubscriptionEntityIDsIsACopy(t *testing.T) {
	c := New("test-app", Options{GC: cache.GCConfig{MaxEntities: 1}})
	defer c.Close()

	require.NoError(t, c.Create(context.Background(), types.NewEntity("tasks", "a")))
	require.NoError(t, c.Create(context.Background(), types.NewEntity("tasks", "b")))

	sub := c.Subscribe("a")
	defer sub.Close()

	// Mauling the returned slice must not change what the subscription
	// protects
	ids := sub.EntityIDs()
	require.Equal(t, []types.EntityID{"a"}, ids)
	ids[0] = "b"

	c.GC().RunGC(context.Background())
	_, ok := c.Store().Get("a")
	assert.True(t, ok, "subscribed entity stays protected")
	assert.Equal(t, []types.EntityID{"a"}, sub.EntityIDs())
}

func TestHandleRefreshUpdatesStoreAndLedger(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("server copy"))
	e.Set("rev", types.Int(7))
	c.HandleRefresh(e)

	got, ok := c.Get("d1")
	require.True(t, ok)
	text, _ := got.Fields["text"].AsString()
	assert.Equal(t, "server copy", text)

	diag := c.GC().Diagnostics()
	assert.Equal(t, 1, diag.TrackedEntities)
	assert.Equal(t, uint64(2), diag.EstimatedTotalCost)
}

func TestHandleAckReleasesPending(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	// A transport that never acks leaves the snapshot pending
	ct := &countingTransport{}
	c.SetTransport(ct)

	require.NoError(t, c.Create(context.Background(), types.NewEntity("docs", "d1")))
	require.Equal(t, 1, c.build.Pending().Len())

	c.HandleAck(types.NewChunk("docs", "d1"))
	assert.Zero(t, c.build.Pending().Len())
}

func TestUpdateFieldCountsAsTraffic(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	ct := &countingTransport{}
	c.SetTransport(ct)

	err := c.UpdateField(context.Background(), "docs", "d1", "views", types.Int(1))
	require.NoError(t, err)
	require.Equal(t, 1, ct.calls)

	// Field updates apply optimistically even for entities never read
	e, ok := c.Store().Get("d1")
	require.True(t, ok)
	views, _ := e.Fields["views"].AsInt()
	assert.Equal(t, int64(1), views)
}

func TestTransactNoChunks(t *testing.T) {
	c := newTestClient()
	defer c.Close()

	ct := &countingTransport{}
	c.SetTransport(ct)

	require.NoError(t, c.Transact(context.Background()))
	assert.Zero(t, ct.calls)
}
