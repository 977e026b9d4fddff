// Package dialect defines the storage-engine abstraction the runtime
// executes against.
//
// The generator emits SQLite dialect text; the Driver interface keeps
// the execution surface independent of the concrete driver so tests
// can substitute a mock engine.
package dialect

import "context"

// SQLite is the dialect the SQL generator targets. The recommended
// production driver is modernc.org/sqlite, registered under this name.
const SQLite = "sqlite"

// ExecQuerier wraps the Exec and Query methods. args is expected to be
// a []any of positional parameters; v receives the result (*sql.Result
// for Exec, *sql.Rows for Query) and may be nil for Exec.
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface the storage engine must implement.
type Driver interface {
	ExecQuerier
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}
