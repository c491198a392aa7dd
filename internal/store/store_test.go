package store_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/engine/internal/assert/helpers"
	"github.com/fieldline/engine/internal/metrics"
	"github.com/fieldline/engine/internal/store"
	"github.com/fieldline/engine/pkg/api"
)

// testStoreContract exercises the behavior every backend must share
func testStoreContract(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("put_and_get", func(t *testing.T) {
		wf := helpers.NewSimpleWorkflow("wf-contract")
		require.NoError(t, s.Put(ctx, wf))

		got, err := s.Get(ctx, "wf-contract")
		require.NoError(t, err)
		assert.Equal(t, wf.ID, got.ID)
		assert.Equal(t, wf.Name, got.Name)
		assert.Len(t, got.Sections, 1)
	})

	t.Run("get_missing", func(t *testing.T) {
		_, err := s.Get(ctx, "wf-missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put_replaces", func(t *testing.T) {
		wf := helpers.NewSimpleWorkflow("wf-replace")
		require.NoError(t, s.Put(ctx, wf))

		wf.Name = "Renamed"
		require.NoError(t, s.Put(ctx, wf))

		got, err := s.Get(ctx, "wf-replace")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
	})

	t.Run("delete", func(t *testing.T) {
		wf := helpers.NewSimpleWorkflow("wf-delete")
		require.NoError(t, s.Put(ctx, wf))
		require.NoError(t, s.Delete(ctx, "wf-delete"))

		_, err := s.Get(ctx, "wf-delete")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete_missing", func(t *testing.T) {
		err := s.Delete(ctx, "wf-never-stored")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list_ordered", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, helpers.NewSimpleWorkflow("wf-list-b")))
		require.NoError(t, s.Put(ctx, helpers.NewSimpleWorkflow("wf-list-a")))
		require.NoError(t, s.Put(ctx, helpers.NewSimpleWorkflow("wf-list-c")))

		workflows, err := s.List(ctx)
		require.NoError(t, err)

		var listed []api.WorkflowID
		for _, wf := range workflows {
			switch wf.ID {
			case "wf-list-a", "wf-list-b", "wf-list-c":
				listed = append(listed, wf.ID)
			}
		}
		assert.Equal(t, []api.WorkflowID{
			"wf-list-a", "wf-list-b", "wf-list-c",
		}, listed)
	})

	t.Run("stored_value_isolated", func(t *testing.T) {
		wf := helpers.NewSimpleWorkflow("wf-isolated")
		require.NoError(t, s.Put(ctx, wf))

		got, err := s.Get(ctx, "wf-isolated")
		require.NoError(t, err)
		got.Name = "Mutated"
		got.Sections[0].Steps[0].ID = "tampered"

		again, err := s.Get(ctx, "wf-isolated")
		require.NoError(t, err)
		assert.Equal(t, "Test Workflow", again.Name)
		assert.Equal(t, api.StepID("answer"), again.Sections[0].Steps[0].ID)
	})

	t.Run("rejects_bad_workflows", func(t *testing.T) {
		assert.ErrorIs(t, s.Put(ctx, nil), store.ErrNilWorkflow)

		missing := helpers.NewSimpleWorkflow("")
		assert.Error(t, s.Put(ctx, missing))

		malformed := helpers.NewSimpleWorkflow("Bad ID!")
		assert.Error(t, s.Put(ctx, malformed))
	})
}

func TestWithMetrics(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	s := store.WithMetrics(store.NewMemory(), m, "memory")

	wf := helpers.NewSimpleWorkflow("wf-metrics")
	require.NoError(t, s.Put(ctx, wf))

	_, err := s.Get(ctx, "wf-metrics")
	require.NoError(t, err)

	_, err = s.List(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "wf-metrics"))
	require.NoError(t, s.Close())

	count, err := testutil.GatherAndCount(
		registry, "fieldline_store_operations_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestWithMetricsNilPassthrough(t *testing.T) {
	inner := store.NewMemory()
	assert.Same(t, store.Store(inner), store.WithMetrics(inner, nil, "memory"))
}
