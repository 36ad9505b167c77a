// Package engine owns the DuckDB connection used to query Overture Maps
// places data over S3. It loads the httpfs and spatial extensions, binds the
// places view to a dataset release, and hands out per-job session handles
// that support best-effort interruption of an in-flight query.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"placequery/internal/domain"
)

const placesPathPattern = "s3://overturemaps-us-west-2/release/%s/theme=places/type=place/*"

var (
	releasePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.\d+$`)
	regionPattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Config holds engine bootstrap parameters.
type Config struct {
	S3Region    string // AWS region of the Overture bucket (default us-west-2)
	MaxMemoryGB int    // DuckDB max_memory, 0 = driver default
	Logger      *slog.Logger
}

// Engine wraps an in-memory DuckDB instance with the Overture places view.
type Engine struct {
	db     *sql.DB
	logger *slog.Logger

	mu           sync.Mutex
	boundRelease string
}

// Open creates an in-memory DuckDB, installs the httpfs and spatial
// extensions, and configures anonymous S3 access to the public bucket.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if cfg.MaxMemoryGB > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET max_memory='%dGB'", cfg.MaxMemoryGB)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set max_memory: %w", err)
		}
	}

	extensions := []string{
		"INSTALL httpfs; LOAD httpfs;",
		"INSTALL spatial; LOAD spatial;",
	}
	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("extension setup (%s): %w", ext, err)
		}
	}

	region := cfg.S3Region
	if region == "" {
		region = "us-west-2"
	}
	if !regionPattern.MatchString(region) {
		_ = db.Close()
		return nil, fmt.Errorf("invalid s3 region %q", region)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("SET s3_region='%s'", region)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set s3_region: %w", err)
	}

	logger.Info("duckdb engine ready", "s3_region", region)
	return &Engine{db: db, logger: logger}, nil
}

// Close shuts the underlying DuckDB down.
func (e *Engine) Close() error { return e.db.Close() }

// DB exposes the underlying handle for health probes and tests.
func (e *Engine) DB() *sql.DB { return e.db }

// BoundRelease returns the currently bound dataset release, or "" before the
// first bind.
func (e *Engine) BoundRelease() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.boundRelease
}

// NeedsBind reports whether the bound release differs from the requested one.
func (e *Engine) NeedsBind(release string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.boundRelease != release
}

// BindRelease (re)creates the places view over the given Overture release.
// Idempotent when already bound to release. The release string is checked
// against the release-id format before it is interpolated into DDL.
func (e *Engine) BindRelease(ctx context.Context, release string) error {
	if !releasePattern.MatchString(release) {
		return domain.ErrViewBinding("invalid release identifier %q", release)
	}

	e.mu.Lock()
	if e.boundRelease == release {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	ddl := fmt.Sprintf(`CREATE OR REPLACE VIEW places AS
SELECT * FROM read_parquet('%s', filename=true, hive_partitioning=1)`,
		fmt.Sprintf(placesPathPattern, release))

	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return domain.ErrViewBinding("create places view for release %s: %s", release, err.Error())
	}

	e.mu.Lock()
	e.boundRelease = release
	e.mu.Unlock()

	e.logger.Info("places view bound", "release", release)
	return nil
}

// Acquire obtains a dedicated connection for one job. The returned session is
// never shared: after a forced abandonment the orphaned worker retires its own
// session and the next job gets a fresh one here.
func (e *Engine) Acquire(ctx context.Context) (domain.EngineSession, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, domain.ErrEngineConnection("acquire duckdb session: %s", err.Error())
	}
	sctx, cancel := context.WithCancel(context.Background())
	return &Session{conn: conn, ctx: sctx, cancel: cancel}, nil
}

// Count runs a count query synchronously, bounded by ctx.
func (e *Engine) Count(ctx context.Context, query string) (int64, error) {
	var count int64
	if err := e.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return count, nil
}

// Version returns the DuckDB version string.
func (e *Engine) Version(ctx context.Context) string {
	var version string
	_ = e.db.QueryRowContext(ctx, "SELECT version()").Scan(&version)
	return version
}

// Session is one job's engine handle: a dedicated connection plus a
// cancellable context. Interrupt cancels the context, which the driver
// translates into a DuckDB interrupt of the running statement.
type Session struct {
	conn   *sql.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

var _ domain.EngineSession = (*Session)(nil)

// Execute runs the compiled query and scans the fixed projection.
func (s *Session) Execute(query string) (*domain.ResultSet, error) {
	rows, err := s.conn.QueryContext(s.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	result := &domain.ResultSet{}
	for rows.Next() {
		var (
			id, name, category, state, city sql.NullString
			lon, lat                        sql.NullFloat64
		)
		if err := rows.Scan(&id, &name, &category, &state, &city, &lon, &lat); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		place := domain.Place{
			ID:       id.String,
			Name:     name.String,
			Category: category.String,
			State:    state.String,
			City:     city.String,
		}
		if lon.Valid {
			v := lon.Float64
			place.Longitude = &v
		}
		if lat.Valid {
			v := lat.Float64
			place.Latitude = &v
		}
		result.Places = append(result.Places, place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	return result, nil
}

// Interrupt aborts the in-flight Execute, best-effort.
func (s *Session) Interrupt() { s.cancel() }

// Close releases the dedicated connection.
func (s *Session) Close() error {
	s.cancel()
	return s.conn.Close()
}
