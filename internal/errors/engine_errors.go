package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the kinds of failures the engine distinguishes.
type ErrorCategory string

const (
	// Fatal for the affected tuple, never retried
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	ErrorCategoryLimit      ErrorCategory = "LIMIT"

	// Retryable at the fetch boundary
	ErrorCategoryTimeout ErrorCategory = "TIMEOUT"
	ErrorCategoryFetch   ErrorCategory = "FETCH"

	// Fatal for the whole run
	ErrorCategoryStorage ErrorCategory = "STORAGE"
	ErrorCategoryConfig  ErrorCategory = "CONFIG"
)

// Sentinels that are part of normal control flow, not failures.
var (
	// ErrNoBaseline signals that a window cannot produce a baseline
	// (too few samples, degenerate trim, zero volume denominator).
	// Callers skip the period instead of treating it as an error.
	ErrNoBaseline = errors.New("no baseline for window")

	// ErrDataUnavailable signals an empty series for the requested range.
	// A grid tuple seeing it yields a zero-trade result.
	ErrDataUnavailable = errors.New("no data for range")

	// ErrNotFound signals a missing row for a point lookup.
	ErrNotFound = errors.New("not found")
)

// EngineError is a categorized error with the component and operation that
// produced it.
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsRetryable reports whether the fetch boundary may retry this error.
func (e *EngineError) IsRetryable() bool {
	return e.Retryable
}

// NewEngineError creates a new categorized error.
func NewEngineError(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Retryable: isRetryableCategory(category),
	}
}

// WrapError wraps an existing error with engine error context.
func WrapError(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Retryable:  isRetryableCategory(category),
	}
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryTimeout, ErrorCategoryFetch:
		return true
	default:
		return false
	}
}

// ContractViolation is the fatal input-contract error for a tuple: the batch
// is rejected rather than silently repaired.
func ContractViolation(component, message string) *EngineError {
	return NewEngineError(ErrorCategoryValidation, component, "validate input", message)
}

// IsContractViolation reports whether err is an input-contract violation.
func IsContractViolation(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Category == ErrorCategoryValidation
}

// LimitExceededError rejects a grid request before any computation starts.
type LimitExceededError struct {
	Requested int
	Allowed   int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("combination limit exceeded: requested %d, allowed %d", e.Requested, e.Allowed)
}

// IsLimitExceeded reports whether err is a combination-limit rejection.
func IsLimitExceeded(err error) bool {
	var le *LimitExceededError
	return errors.As(err, &le)
}
