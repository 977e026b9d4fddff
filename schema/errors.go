package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for registry operations.
var (
	// ErrNotRegistered is returned when an operation references an
	// entity that was never registered.
	ErrNotRegistered = errors.New("schema: entity not registered")

	// ErrNameConflict is returned when an index name is already taken
	// anywhere in the registry.
	ErrNameConflict = errors.New("schema: name conflict")
)

// NotRegisteredError reports an operation against an unknown entity.
type NotRegisteredError struct {
	Key string // entity identity
	Op  string // operation that failed
}

// Error returns the error string.
func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("schema: %s: entity %q not registered", e.Op, e.Key)
}

// Is reports whether the target error matches NotRegisteredError.
func (e *NotRegisteredError) Is(err error) bool {
	return err == ErrNotRegistered
}

// NewNotRegisteredError returns a new NotRegisteredError.
func NewNotRegisteredError(op, key string) *NotRegisteredError {
	return &NotRegisteredError{Key: key, Op: op}
}

// IsNotRegistered returns true if the error is a NotRegisteredError.
func IsNotRegistered(err error) bool {
	if err == nil {
		return false
	}
	var e *NotRegisteredError
	return errors.As(err, &e) || errors.Is(err, ErrNotRegistered)
}

// NameConflictError reports an index name that is already in use.
// Index names collide database-wide, not per table.
type NameConflictError struct {
	Name   string // conflicting index name
	Entity string // entity the registration was attempted on
	Owner  string // entity that already owns the name
}

// Error returns the error string.
func (e *NameConflictError) Error() string {
	if e.Owner != "" && e.Owner != e.Entity {
		return fmt.Sprintf("schema: index name %q on entity %q conflicts with entity %q", e.Name, e.Entity, e.Owner)
	}
	return fmt.Sprintf("schema: index name %q already used on entity %q", e.Name, e.Entity)
}

// Is reports whether the target error matches NameConflictError.
func (e *NameConflictError) Is(err error) bool {
	return err == ErrNameConflict
}

// NewNameConflictError returns a new NameConflictError.
func NewNameConflictError(name, entity, owner string) *NameConflictError {
	return &NameConflictError{Name: name, Entity: entity, Owner: owner}
}

// IsNameConflict returns true if the error is a NameConflictError.
func IsNameConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *NameConflictError
	return errors.As(err, &e) || errors.Is(err, ErrNameConflict)
}

// ValidationError reports invalid metadata or generator input, such as
// a zero-column entity, an empty insert payload, or a malformed index.
type ValidationError struct {
	Table   string   // table or entity the validation ran against
	Columns []string // offending columns, if any
	Reason  string
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	if len(e.Columns) > 0 {
		return fmt.Sprintf("schema: validation failed for %q: %s (columns: %s)", e.Table, e.Reason, strings.Join(e.Columns, ", "))
	}
	return fmt.Sprintf("schema: validation failed for %q: %s", e.Table, e.Reason)
}

// NewValidationError returns a new ValidationError.
func NewValidationError(table, reason string, columns ...string) *ValidationError {
	return &ValidationError{Table: table, Reason: reason, Columns: columns}
}

// IsValidation returns true if the error is a ValidationError.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}
