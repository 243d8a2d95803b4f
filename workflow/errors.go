package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a project or story does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrForbidden is returned when the actor may not touch the record.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when the stored status changed between the
	// read and the conditional write.
	ErrConflict = errors.New("record was modified by another request, reload and try again")
)

// ValidationError reports missing or malformed input. It is raised before
// any write or remote call happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// GuardError reports an illegal transition attempt.
type GuardError struct {
	Action  Action
	From    string
	Message string
}

func (e *GuardError) Error() string {
	return e.Message
}

func forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
