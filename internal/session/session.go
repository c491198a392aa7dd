// Package session tracks live runs in memory. Each run pins the workflow
// it started with, so definition changes never reshape a run mid-flight,
// and carries a monotonically increasing sequence so consumers can discard
// stale views. Idle runs are reaped by a cron-driven sweeper.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/fieldline/engine/internal/metrics"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/log"
	"github.com/fieldline/engine/pkg/run"
)

type (
	// Session is one live run: the answers collected so far and the view
	// derived from them. Data and View are replaced wholesale on every
	// patch, never mutated, so a handed-out Session stays stable
	Session struct {
		RunID      api.RunID      `json:"runId"`
		WorkflowID api.WorkflowID `json:"workflowId"`
		Data       api.DataMap    `json:"data"`
		View       *run.View      `json:"view"`
		Sequence   int64          `json:"sequence"`
		StartedAt  time.Time      `json:"startedAt"`
		LastActive time.Time      `json:"lastActive"`

		workflow *api.Workflow
	}

	// Manager owns the session table and its expiry sweeps
	Manager struct {
		mu      sync.RWMutex
		runs    map[api.RunID]*Session
		runner  *run.Runner
		ttl     time.Duration
		cron    *cron.Cron
		logger  *slog.Logger
		metrics *metrics.Metrics
		now     func() time.Time
	}
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNilWorkflow     = errors.New("session requires a workflow")
)

// NewManager creates a session manager that expires runs idle longer than
// ttl, sweeping on the given cron schedule once Start is called. A nil
// logger falls back to slog.Default and nil metrics disables recording
func NewManager(
	ttl time.Duration, schedule string, logger *slog.Logger,
	m *metrics.Metrics,
) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := &Manager{
		runs:    map[api.RunID]*Session{},
		runner:  run.NewRunner(logger),
		ttl:     ttl,
		cron:    cron.New(),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	if _, err := res.cron.AddFunc(schedule, func() { res.Sweep() }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule: %w", err)
	}
	return res, nil
}

// Start begins the expiry sweeper
func (m *Manager) Start() {
	m.cron.Start()
}

// Close stops the sweeper, waiting for an in-flight sweep to finish.
// Sessions themselves are not torn down; the table dies with the process
func (m *Manager) Close() error {
	<-m.cron.Stop().Done()
	return nil
}

// StartRun mints a new session for the workflow, evaluates the initial
// view from the seed answers, and registers it for sweeping
func (m *Manager) StartRun(
	wf *api.Workflow, seed api.DataMap,
) (*Session, error) {
	if wf == nil {
		return nil, ErrNilWorkflow
	}
	data := api.DataMap{}.Merge(seed)
	view := m.evaluate(wf, data)
	now := m.now()
	s := &Session{
		RunID:      api.RunID(uuid.New().String()),
		WorkflowID: wf.ID,
		Data:       data,
		View:       view,
		Sequence:   1,
		StartedAt:  now,
		LastActive: now,
		workflow:   wf,
	}

	m.mu.Lock()
	m.runs[s.RunID] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionStarted()
	}
	m.logger.Debug("run started",
		log.RunID(s.RunID), log.WorkflowID(wf.ID))
	return s.snapshot(), nil
}

// PatchRun merges the delta over the session's answers, re-derives the
// view, and bumps the sequence. The merged result replaces Data, so views
// and answers handed out before the patch are unaffected
func (m *Manager) PatchRun(
	id api.RunID, delta api.DataMap,
) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Data = s.Data.Merge(delta)
	s.View = m.evaluate(s.workflow, s.Data)
	s.Sequence++
	s.LastActive = m.now()
	return s.snapshot(), nil
}

// GetRun returns the current state of a session. Reads do not refresh the
// idle clock; only patches count as activity
func (m *Manager) GetRun(id api.RunID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.snapshot(), nil
}

// EndRun removes a session
func (m *Manager) EndRun(id api.RunID) error {
	m.mu.Lock()
	_, ok := m.runs[id]
	delete(m.runs, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if m.metrics != nil {
		m.metrics.SessionEnded()
	}
	m.logger.Debug("run ended", log.RunID(id))
	return nil
}

// Sweep removes every session idle past the TTL and returns how many were
// dropped. The sweeper calls this on its schedule; callers may also force
// a pass
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []api.RunID
	for id, s := range m.runs {
		if s.LastActive.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.runs, id)
	}
	m.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}
	if m.metrics != nil {
		m.metrics.RecordSweep(len(expired))
	}
	m.logger.Info("swept idle runs", log.Count(len(expired)))
	return len(expired)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

func (m *Manager) evaluate(wf *api.Workflow, data api.DataMap) *run.View {
	started := time.Now()
	view := m.runner.Evaluate(wf, data)
	if m.metrics != nil {
		m.metrics.RecordEvaluation(metrics.OpSession, time.Since(started))
	}
	return view
}

// snapshot copies the session header. Data and View are shared with the
// live session but are replaced, not mutated, on patch
func (s *Session) snapshot() *Session {
	res := *s
	return &res
}
