package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidFormat means the raw input does not look like a ticket code.
	ErrInvalidFormat = errors.New("invalid ticket code format")
	// ErrNotFound means no registration matches within the event.
	ErrNotFound = errors.New("ticket not found")
	// ErrTooEarly means the admission window is not open yet.
	ErrTooEarly = errors.New("admission window not open")
	// ErrTransientIO marks data-store timeouts and connectivity failures; the
	// same operation may be retried.
	ErrTransientIO = errors.New("data store unavailable")
	ErrForbidden   = errors.New("operator not allowed to check in")
)

// TooEarlyError carries the moment the admission window opens.
type TooEarlyError struct {
	OpensAt time.Time
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("%s: opens at %s", ErrTooEarly, e.OpensAt.Format(time.RFC3339))
}

func (e *TooEarlyError) Unwrap() error {
	return ErrTooEarly
}
