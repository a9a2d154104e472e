package apperrors

import (
	"errors"
	"fmt"
)

// The engine distinguishes three failure classes. DataIncomplete is recovered per
// security and must never abort a batch run. ConstraintViolation signals an
// idempotency or scheduling bug upstream and is surfaced to the caller.
// Catastrophic aborts the run and flips the ledger to status=error.

// DataIncompleteError reports missing or stale upstream data for one security.
type DataIncompleteError struct {
	Code     string
	Strategy string
	Reason   string
}

func (e *DataIncompleteError) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("data incomplete for %s/%s: %s", e.Code, e.Strategy, e.Reason)
	}
	return fmt.Sprintf("data incomplete for %s: %s", e.Code, e.Reason)
}

// NewDataIncomplete creates a DataIncompleteError.
func NewDataIncomplete(code, strategy, reason string) *DataIncompleteError {
	return &DataIncompleteError{Code: code, Strategy: strategy, Reason: reason}
}

// IsDataIncomplete reports whether err is a DataIncompleteError.
func IsDataIncomplete(err error) bool {
	var target *DataIncompleteError
	return errors.As(err, &target)
}

// ConstraintViolationError reports a duplicate key or an invalid state transition.
type ConstraintViolationError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation on %s (%s): %s", e.Entity, e.Key, e.Reason)
}

// NewConstraintViolation creates a ConstraintViolationError.
func NewConstraintViolation(entity, key, reason string) *ConstraintViolationError {
	return &ConstraintViolationError{Entity: entity, Key: key, Reason: reason}
}

// IsConstraintViolation reports whether err is a ConstraintViolationError.
func IsConstraintViolation(err error) bool {
	var target *ConstraintViolationError
	return errors.As(err, &target)
}

// CatastrophicError reports a failure that invalidates the whole batch run.
type CatastrophicError struct {
	Stage string
	Err   error
}

func (e *CatastrophicError) Error() string {
	return fmt.Sprintf("catastrophic failure at %s: %v", e.Stage, e.Err)
}

func (e *CatastrophicError) Unwrap() error {
	return e.Err
}

// NewCatastrophic wraps err as a CatastrophicError.
func NewCatastrophic(stage string, err error) *CatastrophicError {
	return &CatastrophicError{Stage: stage, Err: err}
}

// IsCatastrophic reports whether err is a CatastrophicError.
func IsCatastrophic(err error) bool {
	var target *CatastrophicError
	return errors.As(err, &target)
}
