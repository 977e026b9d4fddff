package litemap

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/litemap/dialect"
)

// TxOptions configures a managed transaction.
type TxOptions struct {
	Isolation Isolation
}

// TxFunc is a callback executed inside a managed transaction.
type TxFunc func(ctx context.Context, tx *Tx) error

// SeqFunc is a callback in a sequential chain: it receives the result
// of the previous callback and returns its own.
type SeqFunc func(ctx context.Context, tx *Tx, prev any) (any, error)

// TxManager drives transactions over a single connection: begin,
// invoke, commit on success, roll back on failure.
type TxManager struct {
	conn dialect.ExecQuerier
	log  *slog.Logger
}

// ManagerOption configures a TxManager.
type ManagerOption func(*TxManager)

// WithManagerLogger sets the logger used for swallowed rollback
// failures.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *TxManager) {
		m.log = log
	}
}

// NewTxManager returns a manager over the given connection.
func NewTxManager(conn dialect.ExecQuerier, opts ...ManagerOption) *TxManager {
	m := &TxManager{conn: conn, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TxManager) begin(ctx context.Context, opts *TxOptions) (*Tx, error) {
	var iso Isolation
	if opts != nil {
		iso = opts.Isolation
	}
	tx := NewTx(m.conn, WithTxLogger(m.log))
	if err := tx.Begin(ctx, iso); err != nil {
		return nil, err
	}
	return tx, nil
}

// finish commits on success and rolls back on failure, always
// surfacing the original error. Rollback failures are logged, not
// thrown.
func (m *TxManager) finish(ctx context.Context, tx *Tx, err error) error {
	if err != nil {
		if tx.State() == StateActive {
			if rerr := tx.Rollback(ctx); rerr != nil {
				m.log.Warn("rollback after error failed", "error", rerr)
			}
		}
		return err
	}
	return tx.Commit(ctx)
}

// Execute runs the callback inside a transaction.
func (m *TxManager) Execute(ctx context.Context, fn TxFunc, opts *TxOptions) error {
	tx, err := m.begin(ctx, opts)
	if err != nil {
		return err
	}
	return m.finish(ctx, tx, fn(ctx, tx))
}

// ExecuteParallel runs all callbacks concurrently inside one shared
// transaction. One failure rolls back all of them. Statements still
// serialize at the connection level regardless of caller-side
// concurrency.
func (m *TxManager) ExecuteParallel(ctx context.Context, fns []TxFunc, opts *TxOptions) error {
	tx, err := m.begin(ctx, opts)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error {
			return fn(gctx, tx)
		})
	}
	return m.finish(ctx, tx, g.Wait())
}

// ExecuteSequential runs the callbacks in order inside one shared
// transaction, threading each result into the next callback. The final
// result is returned.
func (m *TxManager) ExecuteSequential(ctx context.Context, fns []SeqFunc, opts *TxOptions) (any, error) {
	tx, err := m.begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	var prev any
	for _, fn := range fns {
		prev, err = fn(ctx, tx, prev)
		if err != nil {
			break
		}
	}
	if err := m.finish(ctx, tx, err); err != nil {
		return nil, err
	}
	return prev, nil
}
