package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberbase/ember-go/errors"
	"github.com/emberbase/ember-go/types"
)

func TestRegistryRegisterLookup(t *testing.T) {
	r := NewRegistry()

	a := New("app-a", Options{})
	require.NoError(t, r.Register(a))
	assert.Equal(t, 1, r.Len())

	got, ok := r.Lookup("app-a")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = r.Lookup("app-b")
	assert.False(t, ok)
}

func TestRegistryDuplicateApp(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(New("app-a", Options{})))
	err := r.Register(New("app-a", Options{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateApp))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("app-a", Options{})))

	r.Remove("app-a")
	assert.Zero(t, r.Len())

	// The slot is reusable after removal
	assert.NoError(t, r.Register(New("app-a", Options{})))
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("app-a", Options{})))
	require.NoError(t, r.Register(New("app-b", Options{})))

	require.NoError(t, r.Close())
	assert.Zero(t, r.Len())
}

func TestClientsAreIsolated(t *testing.T) {
	// Two clients in one process never see each other's entities
	r := NewRegistry()
	a := New("app-a", Options{})
	b := New("app-b", Options{})
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	defer r.Close()

	require.NoError(t, a.Create(context.Background(), types.NewEntity("tasks", "t1")))

	_, ok := b.Get("t1")
	assert.False(t, ok)
	assert.Zero(t, b.GC().Diagnostics().TrackedEntities)
}
