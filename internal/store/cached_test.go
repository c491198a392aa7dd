package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/engine/internal/assert/helpers"
	"github.com/fieldline/engine/internal/store"
	"github.com/fieldline/engine/pkg/api"
)

// countingStore records how many reads reach the wrapped backend
type countingStore struct {
	store.Store
	gets int
}

func (s *countingStore) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	s.gets++
	return s.Store.Get(ctx, id)
}

func newCountingStore(t *testing.T, ids ...api.WorkflowID) *countingStore {
	t.Helper()
	backend := store.NewMemory()
	for _, id := range ids {
		require.NoError(t,
			backend.Put(context.Background(), helpers.NewSimpleWorkflow(id)))
	}
	return &countingStore{Store: backend}
}

func TestWithCacheHit(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore(t, "wf-cached")
	s := store.WithCache(backend, 8)

	first, err := s.Get(ctx, "wf-cached")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.gets)

	second, err := s.Get(ctx, "wf-cached")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.gets)
	assert.Same(t, first, second)
}

func TestWithCachePutInvalidates(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore(t, "wf-cached")
	s := store.WithCache(backend, 8)

	_, err := s.Get(ctx, "wf-cached")
	require.NoError(t, err)

	updated := helpers.NewSimpleWorkflow("wf-cached")
	updated.Name = "Renamed"
	require.NoError(t, s.Put(ctx, updated))

	got, err := s.Get(ctx, "wf-cached")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 2, backend.gets)
}

func TestWithCacheDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore(t, "wf-cached")
	s := store.WithCache(backend, 8)

	_, err := s.Get(ctx, "wf-cached")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "wf-cached"))

	_, err = s.Get(ctx, "wf-cached")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithCacheMissNotCached(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore(t)
	s := store.WithCache(backend, 8)

	_, err := s.Get(ctx, "wf-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Not-found results are never cached, so the backend is asked again
	_, err = s.Get(ctx, "wf-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 2, backend.gets)
}

func TestWithCacheEviction(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore(t, "wf-a", "wf-b")
	s := store.WithCache(backend, 1)

	_, err := s.Get(ctx, "wf-a")
	require.NoError(t, err)
	_, err = s.Get(ctx, "wf-b")
	require.NoError(t, err)

	_, err = s.Get(ctx, "wf-a")
	require.NoError(t, err)
	assert.Equal(t, 3, backend.gets)
}

func TestWithCacheListPassthrough(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore(t, "wf-a", "wf-b")
	s := store.WithCache(backend, 8)

	workflows, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
	assert.Equal(t, 0, backend.gets)

	require.NoError(t, s.Close())
}

func TestWithCacheDisabled(t *testing.T) {
	inner := store.NewMemory()
	assert.Same(t, store.Store(inner), store.WithCache(inner, 0))
}
