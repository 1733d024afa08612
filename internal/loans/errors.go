package loans

import (
	"errors"
	"fmt"

	"github.com/vicabt/library/internal/entities"
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError returns a NotFoundError for the given entity and key.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// CopyUnavailableError is returned when a loan is requested for a copy that
// is not in the available state.
type CopyUnavailableError struct {
	CopyID string
	State  entities.CopyState
}

func (e *CopyUnavailableError) Error() string {
	return fmt.Sprintf("copy %s is not available (state: %s)", e.CopyID, e.State)
}

// ConflictError reports that a conditional write lost against a concurrent
// change, or that the requested change would break a ledger invariant.
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

// NewConflictError returns a ConflictError.
func NewConflictError(entity, id, reason string) *ConflictError {
	return &ConflictError{Entity: entity, ID: id, Reason: reason}
}

// ForbiddenError is returned when the principal may not perform an action.
type ForbiddenError struct {
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

// ReconciliationWarning describes a loan update that was committed while the
// matching copy release failed. The copy needs manual attention.
type ReconciliationWarning struct {
	LoanID string
	CopyID string
	Err    error
}

func (w *ReconciliationWarning) Error() string {
	return fmt.Sprintf("loan %s was updated but copy %s could not be released: %v", w.LoanID, w.CopyID, w.Err)
}

func (w *ReconciliationWarning) Unwrap() error {
	return w.Err
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
