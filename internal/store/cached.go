package store

import (
	"context"

	"github.com/fieldline/engine/internal/util"
	"github.com/fieldline/engine/pkg/api"
)

type cached struct {
	next  Store
	cache *util.LRUCache[api.WorkflowID, *api.Workflow]
}

// WithCache wraps a store with a read-through LRU over Get. Put and Delete
// invalidate their entry; List always hits the backend. Cached definitions
// are shared between callers and must be treated as read-only. A size of
// zero or less disables caching
func WithCache(next Store, size int) Store {
	if size <= 0 {
		return next
	}
	return &cached{
		next:  next,
		cache: util.NewLRUCache[api.WorkflowID, *api.Workflow](size),
	}
}

func (s *cached) Put(ctx context.Context, wf *api.Workflow) error {
	if err := s.next.Put(ctx, wf); err != nil {
		return err
	}
	s.cache.Remove(wf.ID)
	return nil
}

func (s *cached) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	return s.cache.Get(id, func() (*api.Workflow, error) {
		return s.next.Get(ctx, id)
	})
}

func (s *cached) Delete(ctx context.Context, id api.WorkflowID) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(id)
	return nil
}

func (s *cached) List(ctx context.Context) ([]*api.Workflow, error) {
	return s.next.List(ctx)
}

func (s *cached) Close() error {
	s.cache.Purge()
	return s.next.Close()
}
