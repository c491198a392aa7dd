// Package store persists workflow definitions. Three backends share one
// interface: an in-process map for development, redis for shared
// deployments, and sqlite for single-node installs that need durability.
// All backends keep the definition as marshaled JSON so a stored workflow
// never aliases the caller's value.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fieldline/engine/internal/metrics"
	"github.com/fieldline/engine/pkg/api"
)

// Store is the definition store contract shared by all backends
type Store interface {
	// Put creates or replaces a workflow definition
	Put(ctx context.Context, wf *api.Workflow) error

	// Get returns the workflow with the given ID, or ErrNotFound
	Get(ctx context.Context, id api.WorkflowID) (*api.Workflow, error)

	// Delete removes the workflow with the given ID, or ErrNotFound
	Delete(ctx context.Context, id api.WorkflowID) error

	// List returns all stored workflows ordered by ID
	List(ctx context.Context) ([]*api.Workflow, error)

	// Close releases any resources held by the backend
	Close() error
}

var (
	ErrNotFound    = errors.New("workflow not found")
	ErrNilWorkflow = errors.New("nil workflow")
)

func encode(wf *api.Workflow) ([]byte, error) {
	if wf == nil {
		return nil, ErrNilWorkflow
	}
	if err := api.ValidateID(wf.ID); err != nil {
		return nil, err
	}
	data, err := json.Marshal(wf)
	if err != nil {
		return nil, fmt.Errorf("encoding workflow %s: %w", wf.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*api.Workflow, error) {
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	wf := &api.Workflow{}
	if err := json.Unmarshal(data, wf); err != nil {
		return nil, fmt.Errorf("decoding stored workflow: %w", err)
	}
	return wf, nil
}

type instrumented struct {
	next    Store
	metrics *metrics.Metrics
	backend string
}

// WithMetrics wraps a store so every operation is counted under the named
// backend
func WithMetrics(next Store, m *metrics.Metrics, backend string) Store {
	if m == nil {
		return next
	}
	return &instrumented{next: next, metrics: m, backend: backend}
}

func (s *instrumented) Put(ctx context.Context, wf *api.Workflow) error {
	s.metrics.RecordStoreOp("put", s.backend)
	return s.next.Put(ctx, wf)
}

func (s *instrumented) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	s.metrics.RecordStoreOp("get", s.backend)
	return s.next.Get(ctx, id)
}

func (s *instrumented) Delete(ctx context.Context, id api.WorkflowID) error {
	s.metrics.RecordStoreOp("delete", s.backend)
	return s.next.Delete(ctx, id)
}

func (s *instrumented) List(ctx context.Context) ([]*api.Workflow, error) {
	s.metrics.RecordStoreOp("list", s.backend)
	return s.next.List(ctx)
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
