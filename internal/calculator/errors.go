package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches any *NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrModeTransition matches any *ModeTransitionError via errors.Is.
	ErrModeTransition = errors.New("invalid mode transition")
)

// ValidationError reports a rejected input: a negative amount or quantity,
// a missing required field, or an unknown item kind.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an item id or index that is not present at call time.
type NotFoundError struct {
	What string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ModeTransitionError reports a guest-count mode change that cannot be applied.
// Every transition between the defined modes is legal, so this is only
// returned for a mode value outside Auto, Manual and Variable.
type ModeTransitionError struct {
	From   GuestCountMode
	To     GuestCountMode
	Reason string
}

func (e *ModeTransitionError) Error() string {
	return fmt.Sprintf("cannot switch guest count mode from %s to %s: %s", e.From, e.To, e.Reason)
}

func (e *ModeTransitionError) Is(target error) bool { return target == ErrModeTransition }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
