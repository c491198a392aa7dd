package store

import (
	"context"
	"slices"
	"sync"

	"github.com/fieldline/engine/pkg/api"
)

// Memory is an in-process definition store. Entries are held as marshaled
// JSON so callers cannot mutate stored definitions through retained
// pointers
type Memory struct {
	mu        sync.RWMutex
	workflows map[api.WorkflowID][]byte
}

// NewMemory creates an empty in-memory definition store
func NewMemory() *Memory {
	return &Memory{
		workflows: map[api.WorkflowID][]byte{},
	}
}

func (m *Memory) Put(_ context.Context, wf *api.Workflow) error {
	data, err := encode(wf)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[wf.ID] = data
	return nil
}

func (m *Memory) Get(
	_ context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	m.mu.RLock()
	data, ok := m.workflows[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *Memory) Delete(_ context.Context, id api.WorkflowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(m.workflows, id)
	return nil
}

func (m *Memory) List(_ context.Context) ([]*api.Workflow, error) {
	m.mu.RLock()
	ids := make([]api.WorkflowID, 0, len(m.workflows))
	for id := range m.workflows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	encoded := make([][]byte, 0, len(ids))
	for _, id := range ids {
		encoded = append(encoded, m.workflows[id])
	}
	m.mu.RUnlock()

	workflows := make([]*api.Workflow, 0, len(encoded))
	for _, data := range encoded {
		wf, err := decode(data)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}

func (m *Memory) Close() error {
	return nil
}
