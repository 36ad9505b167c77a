package domain

import "context"

// EngineSession is a dedicated engine handle owned by exactly one job worker.
// Interrupt is best-effort: it asks the engine to abort the in-flight Execute
// and may not land before natural completion.
type EngineSession interface {
	// Execute runs the compiled query text. This is the one blocking call of
	// a job; it returns an error when the engine fails or when an interrupt
	// was induced mid-flight.
	Execute(query string) (*ResultSet, error)

	// Interrupt requests abortion of the in-flight Execute. Safe to call
	// from another goroutine; at most one outstanding call per Execute.
	Interrupt()

	// Close releases the session. The owning worker calls it exactly once.
	Close() error
}

// QueryEngine is the external query-execution collaborator.
type QueryEngine interface {
	// Acquire obtains a fresh session handle. Sessions are never shared
	// across jobs; after a forced abandonment the orphan keeps its own.
	Acquire(ctx context.Context) (EngineSession, error)

	// NeedsBind reports whether the engine's bound dataset release differs
	// from the requested one.
	NeedsBind(release string) bool

	// BindRelease (re)binds the places view to the given dataset release.
	// Idempotent when already bound to release; otherwise possibly slow and
	// network-bound.
	BindRelease(ctx context.Context, release string) error
}
