// Package shared contains error kinds used across the domain packages and
// the adapters that feed them. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds for errors.Is() checks.
var (
	// ErrUnavailable: a collaborator (records backend, classifier, LLM) could not serve the call.
	ErrUnavailable = errors.New("collaborator unavailable")

	// ErrDataIncomplete: a snapshot lacks the curriculum, results or stats a computation needs.
	ErrDataIncomplete = errors.New("data incomplete")

	// ErrAmbiguous: nothing in the question resolved to an intent or entity.
	ErrAmbiguous = errors.New("ambiguous input")

	// ErrMalformed: a record field could not be parsed.
	ErrMalformed = errors.New("malformed record")

	// ErrInvalidInput: caller supplied an unusable argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured: an optional collaborator is switched off.
	ErrNotConfigured = errors.New("not configured")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "academic", "records", "llm"
	Op      string // Operation that failed, e.g., "ComputeStats"
	Kind    error  // Base error kind for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both the kind and the cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// IsUnavailable checks if the error means a collaborator could not answer.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsDataIncomplete checks if the error means the snapshot lacked required data.
func IsDataIncomplete(err error) bool {
	return errors.Is(err, ErrDataIncomplete)
}

// IsNotConfigured checks if the error means an optional collaborator is off.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
