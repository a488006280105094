package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBoardNotFound is returned when a board lookup misses.
	ErrBoardNotFound = errors.New("board not found")
	// ErrTicketNotFound is returned when a ticket lookup misses.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrBoardHasNoStages is returned when a ticket is created on a board without stages,
	// where the terminal stage is undefined.
	ErrBoardHasNoStages = errors.New("board has no stages")

	ErrDuplicateUsername    = errors.New("username already registered")
	ErrInvalidCredentials   = errors.New("incorrect username or password")
	ErrRegistrationDisabled = errors.New("registration is disabled")
	ErrUnauthenticated      = errors.New("could not validate credentials")
)

// ValidationError reports a request field that violates a model constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
