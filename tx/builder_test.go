package tx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberbase/ember-go/cache"
	"github.com/emberbase/ember-go/errors"
	"github.com/emberbase/ember-go/types"
)

func newTestBuilder() (*Builder, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	return NewBuilder(store, NewPendingStore()), store
}

func TestCreateBuildsFullUpsert(t *testing.T) {
	b, _ := newTestBuilder()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	e.Set("words", types.Int(100))

	chunk := b.Create(e)

	require.Len(t, chunk.Ops, 1)
	op := chunk.Ops[0]
	assert.Equal(t, types.OpUpsert, op.Kind)
	assert.Equal(t, "docs", op.Namespace)
	assert.Equal(t, types.EntityID("d1"), op.EntityID)
	assert.Len(t, op.Fields, 2)

	// The snapshot is staged until acknowledged
	_, ok := b.Pending().Get("d1")
	assert.True(t, ok)
}

// taskMapper is a hand-written FieldMapper the way applications implement it
type taskMapper struct {
	Title string
	Done  bool
}

func (m *taskMapper) ToFields() (map[string]types.Value, error) {
	return map[string]types.Value{
		"title": types.String(m.Title),
		"done":  types.Bool(m.Done),
	}, nil
}

func (m *taskMapper) FromFields(fields map[string]types.Value) error {
	if v, ok := fields["title"]; ok {
		m.Title, _ = v.AsString()
	}
	if v, ok := fields["done"]; ok {
		m.Done, _ = v.AsBool()
	}
	return nil
}

func TestCreateFromMapper(t *testing.T) {
	b, _ := newTestBuilder()

	chunk, err := b.CreateFrom("tasks", "t1", &taskMapper{Title: "ship it", Done: false})
	require.NoError(t, err)
	require.Len(t, chunk.Ops, 1)
	assert.Len(t, chunk.Ops[0].Fields, 2)

	// The staged snapshot round-trips back through the mapper
	pending, ok := b.Pending().Get("t1")
	require.True(t, ok)
	var decoded taskMapper
	require.NoError(t, decoded.FromFields(pending.Fields))
	assert.Equal(t, "ship it", decoded.Title)
}

// brokenMapper always fails flattening
type brokenMapper struct{}

func (brokenMapper) ToFields() (map[string]types.Value, error) {
	return nil, errors.New("unsupported field type")
}
func (brokenMapper) FromFields(map[string]types.Value) error { return nil }

func TestCreateFromMapperFailure(t *testing.T) {
	b, _ := newTestBuilder()

	chunk, err := b.CreateFrom("docs", "d1", brokenMapper{})
	require.Error(t, err)
	assert.True(t, errors.IsEncodingFailed(err))
	assert.Nil(t, chunk)
	assert.Zero(t, b.Pending().Len(), "nothing staged on encoding failure")
}

func TestUpdateSendsOnlyChangedFields(t *testing.T) {
	b, store := newTestBuilder()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	e.Set("words", types.Int(100))
	store.Put(e)

	chunk, err := b.Update("docs", "d1", func(doc *types.Entity) {
		doc.Set("text", types.String("final"))
	})
	require.NoError(t, err)
	require.NotNil(t, chunk)

	require.Len(t, chunk.Ops, 1)
	fields := chunk.Ops[0].Fields
	require.Len(t, fields, 1, "untouched fields must not travel")
	text, _ := fields["text"].AsString()
	assert.Equal(t, "final", text)
}

func TestUpdateNoChangeBuildsNothing(t *testing.T) {
	b, store := newTestBuilder()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	store.Put(e)

	chunk, err := b.Update("docs", "d1", func(doc *types.Entity) {
		doc.Set("text", types.String("draft")) // same value
	})
	require.NoError(t, err)
	assert.Nil(t, chunk, "identity update builds no chunk")
	assert.Zero(t, b.Pending().Len())
}

func TestUpdateUnknownEntity(t *testing.T) {
	b, _ := newTestBuilder()

	chunk, err := b.Update("docs", "missing", func(doc *types.Entity) {
		doc.Set("text", types.String("x"))
	})
	assert.Nil(t, chunk)
	require.Error(t, err)
	assert.True(t, errors.IsEntityNotFound(err))
}

func TestUpdateDoesNotMutateStoredEntity(t *testing.T) {
	b, store := newTestBuilder()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	store.Put(e)

	_, err := b.Update("docs", "d1", func(doc *types.Entity) {
		doc.Set("text", types.String("final"))
	})
	require.NoError(t, err)

	stored, _ := store.Get("d1")
	text, _ := stored.Fields["text"].AsString()
	assert.Equal(t, "draft", text, "modify runs against a clone")
}

func TestUpdatePrefersPendingSnapshot(t *testing.T) {
	// Create immediately followed by update: the optimistic snapshot is
	// authoritative even though the store has never seen the entity
	b, _ := newTestBuilder()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	b.Create(e)

	chunk, err := b.Update("docs", "d1", func(doc *types.Entity) {
		doc.Set("words", types.Int(1))
	})
	require.NoError(t, err)
	require.NotNil(t, chunk)

	fields := chunk.Ops[0].Fields
	require.Len(t, fields, 1)
	_, ok := fields["words"]
	assert.True(t, ok)
}

func TestUpdateFieldRemoval(t *testing.T) {
	b, store := newTestBuilder()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	e.Set("obsolete", types.Bool(true))
	store.Put(e)

	chunk, err := b.Update("docs", "d1", func(doc *types.Entity) {
		doc.Unset("obsolete")
	})
	require.NoError(t, err)
	require.NotNil(t, chunk)

	fields := chunk.Ops[0].Fields
	require.Len(t, fields, 1)
	assert.True(t, fields["obsolete"].IsAbsent(), "removal travels as tombstone")
}

func TestConcurrentDisjointUpdatesProduceDisjointChunks(t *testing.T) {
	// Two builders over the same stored snapshot, each touching its own
	// field: both chunks carry only their own change, so the server can apply
	// them in either order
	store := cache.NewMemoryStore()
	e := types.NewEntity("docs", "x")
	e.Set("text", types.String("draft"))
	e.Set("words", types.Int(100))
	store.Put(e)

	b1 := NewBuilder(store, NewPendingStore())
	b2 := NewBuilder(store, NewPendingStore())

	chunk1, err := b1.Update("docs", "x", func(doc *types.Entity) {
		doc.Set("text", types.String("final"))
	})
	require.NoError(t, err)
	chunk2, err := b2.Update("docs", "x", func(doc *types.Entity) {
		doc.Set("words", types.Int(250))
	})
	require.NoError(t, err)

	require.Len(t, chunk1.Ops[0].Fields, 1)
	require.Len(t, chunk2.Ops[0].Fields, 1)
	_, hasText := chunk1.Ops[0].Fields["text"]
	_, hasWords := chunk2.Ops[0].Fields["words"]
	assert.True(t, hasText)
	assert.True(t, hasWords)
}

func TestUpdateFieldsSkipsReadStep(t *testing.T) {
	b, _ := newTestBuilder()

	// No stored entity, no pending snapshot, still succeeds
	chunk := b.UpdateFields("docs", "d1", map[string]types.Value{
		"views": types.Int(1),
	})
	require.Len(t, chunk.Ops, 1)
	assert.Equal(t, types.OpUpsert, chunk.Ops[0].Kind)
}

func TestUpdateFieldsVisibleToLaterUpdate(t *testing.T) {
	b, _ := newTestBuilder()

	e := types.NewEntity("docs", "d1")
	e.Set("text", types.String("draft"))
	b.Create(e)

	b.UpdateFields("docs", "d1", map[string]types.Value{
		"views": types.Int(5),
	})

	// A modify-function update sees the merged pending state
	chunk, err := b.Update("docs", "d1", func(doc *types.Entity) {
		views, _ := doc.Fields["views"].AsInt()
		doc.Set("views", types.Int(views+1))
	})
	require.NoError(t, err)
	require.NotNil(t, chunk)
	views, _ := chunk.Ops[0].Fields["views"].AsInt()
	assert.Equal(t, int64(6), views)
}

func TestConcurrentUpdateAndUpdateFieldsOneEntity(t *testing.T) {
	// The high-contention shape: modify-function updates racing field-only
	// updates against the same pending snapshot. Update clones the snapshot
	// outside the pending lock, so MergeFields must never mutate a handed-out
	// entity in place. Run under -race.
	b, store := newTestBuilder()

	e := types.NewEntity("docs", "x")
	e.Set("text", types.String("draft"))
	e.Set("views", types.Int(0))
	store.Put(e)
	b.Create(e) // keep a pending snapshot alive for the duration

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			rev := types.String("rev-even")
			if i%2 == 1 {
				rev = types.String("rev-odd")
			}
			_, err := b.Update("docs", "x", func(doc *types.Entity) {
				doc.Set("text", rev)
			})
			if err != nil {
				t.Errorf("update failed: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := int64(0); i < 200; i++ {
			b.UpdateFields("docs", "x", map[string]types.Value{
				"views": types.Int(i),
			})
		}
	}()

	wg.Wait()

	pending, ok := b.Pending().Get("x")
	require.True(t, ok)
	_, ok = pending.Get("text")
	assert.True(t, ok)
}

func TestDeleteBuildsDeleteOp(t *testing.T) {
	b, _ := newTestBuilder()

	e := types.NewEntity("docs", "d1")
	b.Create(e)
	require.Equal(t, 1, b.Pending().Len())

	chunk := b.Delete("docs", "d1")
	require.Len(t, chunk.Ops, 1)
	assert.Equal(t, types.OpDelete, chunk.Ops[0].Kind)
	assert.Zero(t, b.Pending().Len(), "pending snapshot is discarded on delete")
}

func TestLinkUnlinkOps(t *testing.T) {
	b, _ := newTestBuilder()

	link := b.Link("docs", "d1", "author", "users", "u1")
	require.Len(t, link.Ops, 1)
	assert.Equal(t, types.OpLink, link.Ops[0].Kind)
	assert.Equal(t, "author", link.Ops[0].Label)
	assert.Equal(t, types.EntityID("u1"), link.Ops[0].TargetID)

	unlink := b.Unlink("docs", "d1", "author", "users", "u1")
	assert.Equal(t, types.OpUnlink, unlink.Ops[0].Kind)
}
