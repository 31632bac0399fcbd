package base

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ===================================================================
// CUSTOM ERROR TYPES
// ===================================================================

// RepositoryError represents base repository error
type RepositoryError struct {
	Operation string
	Table     string
	Message   string
	Cause     error
}

func (e *RepositoryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to %s %s: %s (caused by: %v)", e.Operation, e.Table, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Table, e.Message)
}

func (e *RepositoryError) Unwrap() error {
	return e.Cause
}

// EntityNotFoundError represents entity not found error
type EntityNotFoundError struct {
	Table      string
	Identifier string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s with %s not found", e.Table, e.Identifier)
}

// DuplicateEntityError represents duplicate entity error
type DuplicateEntityError struct {
	Table string
	Key   string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s with key %s already exists", e.Table, e.Key)
}

// ===================================================================
// ERROR HELPERS
// ===================================================================

// WrapDBError wraps a database error with operation context
func WrapDBError(operation, table string, err error) error {
	return &RepositoryError{
		Operation: operation,
		Table:     table,
		Message:   "database operation failed",
		Cause:     err,
	}
}

// HandleDBError converts common gorm errors into the repository taxonomy
func HandleDBError(operation, table, identifier string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &EntityNotFoundError{Table: table, Identifier: identifier}
	}
	if IsDuplicateKeyError(err) {
		return &DuplicateEntityError{Table: table, Key: identifier}
	}
	return WrapDBError(operation, table, err)
}

// IsDuplicateKeyError reports whether err is a unique-constraint violation.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Postgres unique_violation surfaces as SQLSTATE 23505.
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}

// IsNotFound reports whether err is an EntityNotFoundError.
func IsNotFound(err error) bool {
	var nf *EntityNotFoundError
	return errors.As(err, &nf)
}

// IsDuplicate reports whether err is a DuplicateEntityError.
func IsDuplicate(err error) bool {
	var dup *DuplicateEntityError
	return errors.As(err, &dup)
}
