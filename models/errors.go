package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEvent is matched by validation failures on tracked events.
	ErrInvalidEvent = errors.New("invalid engagement event")

	// ErrInvalidWindow is matched by bad period or window bounds.
	ErrInvalidWindow = errors.New("invalid analytics window")

	// ErrStoreUnavailable is matched by every event store failure.
	ErrStoreUnavailable = errors.New("event store unavailable")
)

// ValidationError describes one rejected field of an event or request.
type ValidationError struct {
	Field   string
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == e.kind
}

// NewEventValidationError creates a ValidationError matching ErrInvalidEvent.
func NewEventValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, kind: ErrInvalidEvent}
}

// NewWindowValidationError creates a ValidationError matching ErrInvalidWindow.
func NewWindowValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, kind: ErrInvalidWindow}
}

// TransientStoreError wraps a failure of an event store operation.
type TransientStoreError struct {
	Store string
	Op    string
	Cause error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("%s store %s failed: %v", e.Store, e.Op, e.Cause)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Cause
}

func (e *TransientStoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewTransientStoreError wraps cause as a failure of op on the named store.
func NewTransientStoreError(store, op string, cause error) *TransientStoreError {
	return &TransientStoreError{Store: store, Op: op, Cause: cause}
}
