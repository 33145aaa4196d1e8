package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrUnavailable marks failures worth redelivering: the store was busy
	// and retries ran out.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// NotFoundError names the missing entity. errors.Is(err, ErrNotFound) holds.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %v not found", e.Entity, e.Key) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NotFound(entity string, key any) error { return &NotFoundError{Entity: entity, Key: key} }

// ValidationError reports malformed input at a boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func Invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }

// PaymentValidationError is raised when a completed notification disagrees
// with the order it references.
type PaymentValidationError struct {
	OrderID int64
	Field   string
	Got     string
	Want    string
}

func (e *PaymentValidationError) Error() string {
	return fmt.Sprintf("payment for order %d: %s is %q, want %q", e.OrderID, e.Field, e.Got, e.Want)
}
