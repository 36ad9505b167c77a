// Package job owns the single asynchronous query job slot. A job compiles a
// filter spec, acquires an engine session, binds the dataset release when
// needed, and runs the one blocking query in a detached worker goroutine. The
// controller side polls snapshots, requests cancellation, and may force-
// abandon a worker that outlives the cancellation grace period.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"placequery/internal/domain"
	"placequery/internal/sqlbuild"
)

// DefaultCancelGrace bounds how long a cancellation may stay unacknowledged
// before the slot can be force-abandoned.
const DefaultCancelGrace = 3 * time.Second

// Slot errors returned to the polling side.
var (
	ErrBusy            = errors.New("a query job is already running")
	ErrNoJob           = errors.New("no active query job")
	ErrNotTerminal     = errors.New("job has not reached a terminal state")
	ErrNotCancelled    = errors.New("job has no pending cancellation")
	ErrGraceNotExpired = errors.New("cancellation grace period has not expired")
	ErrNoResult        = errors.New("job finished without a result")
)

// Options configures a Manager.
type Options struct {
	Release     string        // default dataset release for jobs
	CancelGrace time.Duration // 0 = DefaultCancelGrace
	Logger      *slog.Logger
}

// Manager holds the one allowed concurrent job. All methods are safe for
// concurrent use by the controller loop and HTTP handlers.
type Manager struct {
	engine domain.QueryEngine
	logger *slog.Logger
	grace  time.Duration

	defaultRelease string

	mu      sync.Mutex
	current *record // nil when the slot is Idle
}

// NewManager creates a Manager over the given engine.
func NewManager(eng domain.QueryEngine, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	grace := opts.CancelGrace
	if grace <= 0 {
		grace = DefaultCancelGrace
	}
	return &Manager{
		engine:         eng,
		logger:         logger,
		grace:          grace,
		defaultRelease: opts.Release,
	}
}

// record is the shared status record of one job. The worker exclusively
// writes state, statusText, queryText, session, result, err, and completedAt;
// the controller exclusively writes cancelRequested and cancelRequestedAt.
// The mutex provides the cross-goroutine visibility the Go memory model
// requires; the single-writer-per-field split is what keeps the protocol
// race-free once the record has been detached.
type record struct {
	id        string
	startTime time.Time
	done      chan struct{} // closed when the worker returns

	mu                sync.Mutex
	state             domain.JobState
	statusText        string
	queryText         string
	session           domain.EngineSession
	result            *domain.ResultSet
	err               *domain.JobError
	completedAt       *time.Time
	cancelRequested   bool
	cancelRequestedAt time.Time
}

// Start validates spec and launches a fresh job. release overrides the
// manager default when non-empty. Legal only while the slot is Idle or holds
// an already-terminated job, which is first reset to Idle; a brand-new status
// record is always allocated so an orphaned worker can never touch the new
// job's state.
func (m *Manager) Start(spec domain.FilterSpec, release string) (domain.JobSnapshot, error) {
	if err := spec.Validate(); err != nil {
		return domain.JobSnapshot{State: domain.JobStateIdle}, err
	}
	if release == "" {
		release = m.defaultRelease
	}

	m.mu.Lock()
	if m.current != nil {
		if !m.current.terminated() {
			m.mu.Unlock()
			return m.current.snapshot(), ErrBusy
		}
		m.current = nil
	}
	rec := &record{
		id:         uuid.NewString(),
		startTime:  time.Now(),
		done:       make(chan struct{}),
		state:      domain.JobStateBuilding,
		statusText: "Building SQL query",
	}
	m.current = rec
	m.mu.Unlock()

	m.logger.Info("job started", "job_id", rec.id, "release", release)
	go m.run(rec, spec, release)

	return rec.snapshot(), nil
}

// Snapshot returns the current slot state. An Idle slot reports JobStateIdle.
func (m *Manager) Snapshot() domain.JobSnapshot {
	m.mu.Lock()
	rec := m.current
	m.mu.Unlock()
	if rec == nil {
		return domain.JobSnapshot{State: domain.JobStateIdle}
	}
	return rec.snapshot()
}

// Cancel requests cancellation of the active job: sets the flag, records the
// request time, and fires a best-effort interrupt at the engine session if
// one exists yet. Cancelling an already-terminal job is a no-op.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	rec := m.current
	m.mu.Unlock()
	if rec == nil {
		return ErrNoJob
	}

	rec.mu.Lock()
	if rec.state.Terminal() {
		rec.mu.Unlock()
		return nil
	}
	if !rec.cancelRequested {
		rec.cancelRequested = true
		rec.cancelRequestedAt = time.Now()
	}
	session := rec.session
	rec.mu.Unlock()

	if session != nil {
		session.Interrupt()
	}
	m.logger.Info("job cancellation requested", "job_id", rec.id)
	return nil
}

// Acknowledge consumes a terminal outcome and resets the slot to Idle. The
// worker must have terminated: a terminal-looking state from a still-running
// worker is never treated as final.
func (m *Manager) Acknowledge() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoJob
	}
	if !m.current.terminated() {
		return ErrNotTerminal
	}
	m.logger.Info("job acknowledged", "job_id", m.current.id, "state", m.current.snapshot().State)
	m.current = nil
	return nil
}

// Abandon force-resets the slot to Idle after a cancellation whose grace
// period has expired while the worker is still alive. The detached record
// stays with the orphaned worker, which may keep mutating it; the manager
// never reads it again, and the next job gets a fresh engine session.
func (m *Manager) Abandon() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoJob
	}
	rec := m.current
	if rec.terminated() {
		return ErrNotTerminal
	}

	rec.mu.Lock()
	requested := rec.cancelRequested
	requestedAt := rec.cancelRequestedAt
	rec.mu.Unlock()

	if !requested {
		return ErrNotCancelled
	}
	if time.Since(requestedAt) < m.grace {
		return ErrGraceNotExpired
	}

	m.logger.Warn("job abandoned, worker orphaned", "job_id", rec.id)
	m.current = nil
	return nil
}

// CancelGrace returns the configured grace period.
func (m *Manager) CancelGrace() time.Duration { return m.grace }

// Finished reports whether the slot holds a job whose worker goroutine has
// returned. Only then may terminal state, result, and error be read as final.
func (m *Manager) Finished() bool {
	m.mu.Lock()
	rec := m.current
	m.mu.Unlock()
	return rec != nil && rec.terminated()
}

// Result returns the rows of a terminated, completed job.
func (m *Manager) Result() (*domain.ResultSet, error) {
	m.mu.Lock()
	rec := m.current
	m.mu.Unlock()
	if rec == nil {
		return nil, ErrNoJob
	}
	if !rec.terminated() {
		return nil, ErrNotTerminal
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	switch rec.state {
	case domain.JobStateCompleted, domain.JobStateCompletedEmpty:
		if rec.result == nil {
			return &domain.ResultSet{}, nil
		}
		return rec.result, nil
	default:
		return nil, ErrNoResult
	}
}

// run is the worker. It owns the record's worker-side fields and the engine
// session, checks the cancel flag at every phase boundary, and reduces every
// failure to a classification in the record before returning.
func (m *Manager) run(rec *record, spec domain.FilterSpec, release string) {
	defer close(rec.done)

	// Building
	compiled := sqlbuild.Build(spec)
	rec.setQueryText(compiled)

	if rec.cancelPending() {
		rec.finishCancelled("Cancelled before connecting")
		return
	}

	// Connecting
	rec.setPhase(domain.JobStateConnecting, "Acquiring engine session")
	session, err := m.engine.Acquire(context.Background())
	if err != nil {
		rec.finishFailed(domain.JobErrorConnection, err)
		return
	}
	rec.setSession(session)
	defer session.Close() //nolint:errcheck

	if rec.cancelPending() {
		rec.finishCancelled("Cancelled before preparing view")
		return
	}

	// PreparingView, skipped when the engine is already bound to release.
	if m.engine.NeedsBind(release) {
		rec.setPhase(domain.JobStatePreparingView, "Binding dataset release "+release)
		if err := m.engine.BindRelease(context.Background(), release); err != nil {
			rec.finishFailed(domain.JobErrorBinding, err)
			return
		}
	}

	if rec.cancelPending() {
		rec.finishCancelled("Cancelled before executing")
		return
	}

	// Executing: the one unpreemptible blocking call. Mid-flight cancellation
	// arrives as an engine error induced by the interrupt; it is classified
	// by the cancel flag, never by inspecting the error text.
	rec.setPhase(domain.JobStateExecuting, "Fetching results from S3")
	result, err := session.Execute(compiled)
	if err != nil {
		if rec.cancelPending() {
			rec.finishCancelled("Query interrupted")
		} else {
			rec.finishFailed(domain.JobErrorExecution, err)
		}
		return
	}

	if result.Empty() {
		rec.finish(domain.JobStateCompletedEmpty, "No results found", result)
		m.logger.Info("job completed empty", "job_id", rec.id)
		return
	}
	rec.finish(domain.JobStateCompleted, fmt.Sprintf("Query complete, %d results", result.RowCount()), result)
	m.logger.Info("job completed", "job_id", rec.id, "row_count", result.RowCount())
}

// --- record accessors ---

// terminated reports whether the worker goroutine has returned. This, not the
// state value, is the authoritative completion signal.
func (r *record) terminated() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *record) setPhase(state domain.JobState, text string) {
	r.mu.Lock()
	r.state = state
	r.statusText = text
	r.mu.Unlock()
}

func (r *record) setQueryText(text string) {
	r.mu.Lock()
	r.queryText = text
	r.statusText = "SQL query built"
	r.mu.Unlock()
}

func (r *record) setSession(s domain.EngineSession) {
	r.mu.Lock()
	r.session = s
	r.statusText = "Engine session ready"
	r.mu.Unlock()
}

func (r *record) cancelPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelRequested
}

func (r *record) finish(state domain.JobState, text string, result *domain.ResultSet) {
	now := time.Now()
	r.mu.Lock()
	r.state = state
	r.statusText = text
	r.result = result
	r.completedAt = &now
	r.mu.Unlock()
}

func (r *record) finishCancelled(text string) {
	now := time.Now()
	r.mu.Lock()
	r.state = domain.JobStateCancelled
	r.statusText = text
	r.completedAt = &now
	r.mu.Unlock()
}

func (r *record) finishFailed(kind domain.JobErrorKind, err error) {
	now := time.Now()
	r.mu.Lock()
	r.state = domain.JobStateFailed
	r.statusText = "Query failed"
	r.err = &domain.JobError{Kind: kind, Message: err.Error()}
	r.completedAt = &now
	r.mu.Unlock()
}

func (r *record) snapshot() domain.JobSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	end := time.Now()
	if r.completedAt != nil {
		end = *r.completedAt
	}
	snap := domain.JobSnapshot{
		ID:              r.id,
		State:           r.state,
		StatusText:      r.statusText,
		QueryText:       r.queryText,
		StartTime:       r.startTime,
		Elapsed:         end.Sub(r.startTime).Seconds(),
		CancelRequested: r.cancelRequested,
		RowCount:        r.result.RowCount(),
		Error:           r.err,
	}
	if r.cancelRequested {
		at := r.cancelRequestedAt
		snap.CancelRequestedAt = &at
	}
	return snap
}
