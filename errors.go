package litemap

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors.
var (
	// ErrTxActive is returned when beginning a transaction that is
	// already active or terminal.
	ErrTxActive = errors.New("litemap: transaction already started")

	// ErrTxNotActive is returned when a transaction operation requires
	// an active transaction.
	ErrTxNotActive = errors.New("litemap: no active transaction")

	// ErrNoSavepoint is returned when a savepoint operation defaults
	// to the stack top and the stack is empty, or names an unknown
	// savepoint.
	ErrNoSavepoint = errors.New("litemap: no savepoint")

	// ErrStmtFinalized is returned when a prepared statement is used
	// or finalized after finalization.
	ErrStmtFinalized = errors.New("litemap: statement already finalized")
)

// TxStateError reports a transaction operation invalid for the
// current state.
type TxStateError struct {
	Op    string
	State TxState
}

// Error returns the error string.
func (e *TxStateError) Error() string {
	return fmt.Sprintf("litemap: cannot %s transaction in state %s", e.Op, e.State)
}

// Is reports whether the target error matches TxStateError. Begin
// failures match ErrTxActive; everything else requires an active
// transaction and matches ErrTxNotActive.
func (e *TxStateError) Is(err error) bool {
	if e.Op == "begin" {
		return err == ErrTxActive
	}
	return err == ErrTxNotActive
}

// NewTxStateError returns a new TxStateError.
func NewTxStateError(op string, state TxState) *TxStateError {
	return &TxStateError{Op: op, State: state}
}

// IsTxStateError returns true if the error is a TxStateError.
func IsTxStateError(err error) bool {
	if err == nil {
		return false
	}
	var e *TxStateError
	return errors.As(err, &e)
}

// ResourceError reports prepared-statement lifecycle misuse, such as
// using or finalizing a handle twice.
type ResourceError struct {
	Op  string
	SQL string
	Err error
}

// Error returns the error string.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("litemap: %s %q: %v", e.Op, e.SQL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError returns a new ResourceError.
func NewResourceError(op, sql string, err error) *ResourceError {
	return &ResourceError{Op: op, SQL: sql, Err: err}
}

// IsResourceError returns true if the error is a ResourceError.
func IsResourceError(err error) bool {
	if err == nil {
		return false
	}
	var e *ResourceError
	return errors.As(err, &e)
}

// EngineError wraps a storage-engine failure with the SQL that
// triggered it.
type EngineError struct {
	SQL string
	Err error
}

// Error returns the error string.
func (e *EngineError) Error() string {
	return fmt.Sprintf("litemap: engine: %q: %v", e.SQL, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError returns a new EngineError.
func NewEngineError(sql string, err error) *EngineError {
	return &EngineError{SQL: sql, Err: err}
}

// IsConstraint returns true if the error originates from a constraint
// violation reported by the storage engine.
func IsConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint")
}
