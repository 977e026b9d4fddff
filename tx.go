package litemap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/syssam/litemap/dialect"
)

// quoteIdent quotes a savepoint or other identifier interpolated into
// control statements.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TxState is the state of a transaction.
type TxState int

const (
	// StateIdle is the initial state, before Begin.
	StateIdle TxState = iota
	// StateActive is entered by a successful Begin.
	StateActive
	// StateCommitted is terminal.
	StateCommitted
	// StateRolledBack is terminal.
	StateRolledBack
)

func (s TxState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	default:
		return "invalid"
	}
}

// Isolation selects the BEGIN behavior. The engine serializes writes
// itself; isolation across transactions sharing a connection is
// delegated to these BEGIN-level semantics.
type Isolation string

const (
	// Deferred acquires locks lazily, on first read or write.
	Deferred Isolation = "DEFERRED"
	// Immediate acquires a reserved lock at Begin.
	Immediate Isolation = "IMMEDIATE"
	// Exclusive acquires an exclusive lock at Begin.
	Exclusive Isolation = "EXCLUSIVE"
)

// Tx is a transaction scope: a state machine over
// BEGIN/COMMIT/ROLLBACK/SAVEPOINT issued against a single connection.
// Statements issued through one Tx execute in issue order: an internal
// mutex serializes access when callbacks run concurrently.
type Tx struct {
	conn dialect.ExecQuerier
	log  *slog.Logger

	mu         sync.Mutex
	state      TxState
	savepoints []string
	spCounter  int
}

// TxOption configures a transaction.
type TxOption func(*Tx)

// WithTxLogger sets the logger used for swallowed rollback failures.
func WithTxLogger(log *slog.Logger) TxOption {
	return func(t *Tx) {
		t.log = log
	}
}

// NewTx returns a transaction scope over the given connection. The
// connection must be a single logical connection: manual BEGIN/COMMIT
// text is meaningless across a pool.
func NewTx(conn dialect.ExecQuerier, opts ...TxOption) *Tx {
	t := &Tx{conn: conn, log: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current transaction state.
func (t *Tx) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tx) exec(ctx context.Context, query string) error {
	if err := t.conn.Exec(ctx, query, []any{}, nil); err != nil {
		return NewEngineError(query, err)
	}
	return nil
}

// Begin starts the transaction. An empty isolation defaults to
// Deferred. A failed BEGIN leaves the state Idle.
func (t *Tx) Begin(ctx context.Context, iso Isolation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return NewTxStateError("begin", t.state)
	}
	if iso == "" {
		iso = Deferred
	}
	if err := t.exec(ctx, fmt.Sprintf("BEGIN %s TRANSACTION", iso)); err != nil {
		return err
	}
	t.state = StateActive
	return nil
}

// Commit commits the transaction. Outstanding savepoints are unwound
// first so none survives the commit. If COMMIT fails, a best-effort
// ROLLBACK runs, the state becomes RolledBack regardless of caller
// intent, a rollback failure is logged and swallowed, and the original
// commit error is returned.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return NewTxStateError("commit", t.state)
	}
	for i := len(t.savepoints) - 1; i >= 0; i-- {
		if err := t.exec(ctx, "ROLLBACK TO SAVEPOINT "+quoteIdent(t.savepoints[i])); err != nil {
			return t.failCommit(ctx, err)
		}
	}
	t.savepoints = nil
	if err := t.exec(ctx, "COMMIT"); err != nil {
		return t.failCommit(ctx, err)
	}
	t.state = StateCommitted
	return nil
}

// failCommit handles a failed commit path: best-effort rollback, then
// surface the original error.
func (t *Tx) failCommit(ctx context.Context, orig error) error {
	t.state = StateRolledBack
	t.savepoints = nil
	if err := t.conn.Exec(ctx, "ROLLBACK", []any{}, nil); err != nil {
		t.log.Warn("rollback after failed commit failed", "error", err)
	}
	return orig
}

// Rollback rolls back the transaction and clears the savepoint stack.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return NewTxStateError("rollback", t.state)
	}
	t.state = StateRolledBack
	t.savepoints = nil
	return t.exec(ctx, "ROLLBACK")
}

// Savepoint pushes a named savepoint. An empty name auto-generates
// sp_<counter>. The name used is returned.
func (t *Tx) Savepoint(ctx context.Context, name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return "", NewTxStateError("savepoint in", t.state)
	}
	if name == "" {
		t.spCounter++
		name = fmt.Sprintf("sp_%d", t.spCounter)
	}
	if err := t.exec(ctx, "SAVEPOINT "+quoteIdent(name)); err != nil {
		return "", err
	}
	t.savepoints = append(t.savepoints, name)
	return name, nil
}

// ReleaseSavepoint releases the named savepoint, defaulting to the
// stack top, and removes only that entry.
func (t *Tx) ReleaseSavepoint(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return NewTxStateError("release savepoint in", t.state)
	}
	i, err := t.findSavepoint(name)
	if err != nil {
		return err
	}
	if err := t.exec(ctx, "RELEASE SAVEPOINT "+quoteIdent(t.savepoints[i])); err != nil {
		return err
	}
	t.savepoints = append(t.savepoints[:i], t.savepoints[i+1:]...)
	return nil
}

// RollbackToSavepoint rolls back to the named savepoint, defaulting to
// the stack top, and removes that entry and every entry pushed after
// it.
func (t *Tx) RollbackToSavepoint(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return NewTxStateError("rollback to savepoint in", t.state)
	}
	i, err := t.findSavepoint(name)
	if err != nil {
		return err
	}
	if err := t.exec(ctx, "ROLLBACK TO SAVEPOINT "+quoteIdent(t.savepoints[i])); err != nil {
		return err
	}
	t.savepoints = t.savepoints[:i]
	return nil
}

func (t *Tx) findSavepoint(name string) (int, error) {
	if len(t.savepoints) == 0 {
		return 0, fmt.Errorf("%w: savepoint stack is empty", ErrNoSavepoint)
	}
	if name == "" {
		return len(t.savepoints) - 1, nil
	}
	for i := len(t.savepoints) - 1; i >= 0; i-- {
		if t.savepoints[i] == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNoSavepoint, name)
}

// Exec executes a statement inside the transaction scope.
func (t *Tx) Exec(ctx context.Context, query string, args, v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return NewTxStateError("exec in", t.state)
	}
	return t.conn.Exec(ctx, query, args, v)
}

// Query executes a query inside the transaction scope.
func (t *Tx) Query(ctx context.Context, query string, args, v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return NewTxStateError("query in", t.state)
	}
	return t.conn.Query(ctx, query, args, v)
}
