package litemap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// Preparer prepares SQL text into a reusable statement handle. It is
// implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Stmt is a prepared statement handle with exactly-once finalization.
// A handle stored in the cache belongs to the cache; a handle obtained
// through a disabled cache belongs to the caller, who must finalize it
// immediately after its single use.
type Stmt struct {
	sql  string
	stmt *sql.Stmt

	mu        sync.Mutex
	finalized bool
}

// SQL returns the statement text the handle was prepared from.
func (s *Stmt) SQL() string {
	return s.sql
}

func (s *Stmt) use(op string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, NewResourceError(op, s.sql, ErrStmtFinalized)
	}
	return s.stmt, nil
}

// Exec executes the statement with the given positional parameters.
func (s *Stmt) Exec(ctx context.Context, args ...any) (sql.Result, error) {
	st, err := s.use("exec")
	if err != nil {
		return nil, err
	}
	res, err := st.ExecContext(ctx, args...)
	if err != nil {
		return nil, NewEngineError(s.sql, err)
	}
	return res, nil
}

// Query executes the statement and returns the resulting rows.
func (s *Stmt) Query(ctx context.Context, args ...any) (*sql.Rows, error) {
	st, err := s.use("query")
	if err != nil {
		return nil, err
	}
	rows, err := st.QueryContext(ctx, args...)
	if err != nil {
		return nil, NewEngineError(s.sql, err)
	}
	return rows, nil
}

// Finalize releases the underlying prepared statement. A second call
// fails with a ResourceError wrapping ErrStmtFinalized.
func (s *Stmt) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return NewResourceError("finalize", s.sql, ErrStmtFinalized)
	}
	s.finalized = true
	if err := s.stmt.Close(); err != nil {
		return NewResourceError("finalize", s.sql, err)
	}
	return nil
}

// StmtCache is a process-wide map from SQL text to a prepared handle,
// with hit/miss counters. The map and counters are guarded by a mutex
// so the cache may be shared across goroutines.
type StmtCache struct {
	p   Preparer
	log *slog.Logger

	mu      sync.Mutex
	stmts   map[string]*Stmt
	hits    int64
	misses  int64
	enabled bool
}

// CacheOption configures a StmtCache.
type CacheOption func(*StmtCache)

// WithCacheDisabled disables caching: every GetOrCreate prepares
// directly without storing, and the caller must finalize the handle
// after its single use.
func WithCacheDisabled() CacheOption {
	return func(c *StmtCache) {
		c.enabled = false
	}
}

// WithCacheLogger sets the logger used during cleanup.
func WithCacheLogger(log *slog.Logger) CacheOption {
	return func(c *StmtCache) {
		c.log = log
	}
}

// NewStmtCache returns a statement cache preparing through p.
func NewStmtCache(p Preparer, opts ...CacheOption) *StmtCache {
	c := &StmtCache{
		p:       p,
		log:     slog.Default(),
		stmts:   make(map[string]*Stmt),
		enabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether handles are stored for reuse.
func (c *StmtCache) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// GetOrCreate returns the cached handle for the SQL text, preparing
// and storing it on a miss. Once stored, the handle belongs to the
// cache and must not be finalized by the caller.
func (c *StmtCache) GetOrCreate(ctx context.Context, query string) (*Stmt, error) {
	c.mu.Lock()
	if c.enabled {
		if s, ok := c.stmts[query]; ok {
			c.hits++
			c.mu.Unlock()
			return s, nil
		}
	}
	c.misses++
	enabled := c.enabled
	c.mu.Unlock()

	st, err := c.p.PrepareContext(ctx, query)
	if err != nil {
		return nil, NewEngineError(query, err)
	}
	s := &Stmt{sql: query, stmt: st}
	if !enabled {
		return s, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Lost a prepare race: keep the stored handle, finalize ours.
	if stored, ok := c.stmts[query]; ok {
		_ = s.Finalize()
		c.hits++
		c.misses--
		return stored, nil
	}
	c.stmts[query] = s
	return s, nil
}

// Invalidate removes and finalizes every cached statement whose SQL
// text contains the pattern. It returns the number of removed entries.
func (c *StmtCache) Invalidate(pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		removed int
		errs    []error
	)
	for query, s := range c.stmts {
		if !strings.Contains(query, pattern) {
			continue
		}
		delete(c.stmts, query)
		removed++
		if err := s.Finalize(); err != nil && !errors.Is(err, ErrStmtFinalized) {
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

// Cleanup finalizes and clears everything and resets the counters. It
// is idempotent: an already-finalized handle is tolerated, any other
// finalization failure is returned.
func (c *StmtCache) Cleanup() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for query, s := range c.stmts {
		delete(c.stmts, query)
		if err := s.Finalize(); err != nil && !errors.Is(err, ErrStmtFinalized) {
			errs = append(errs, err)
		}
	}
	c.hits, c.misses = 0, 0
	return errors.Join(errs...)
}

// Len returns the number of cached statements.
func (c *StmtCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stmts)
}

// Hits returns the number of cache hits.
func (c *StmtCache) Hits() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Misses returns the number of cache misses.
func (c *StmtCache) Misses() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

// HitRate returns hits/(hits+misses), or 0 before any lookup.
func (c *StmtCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
