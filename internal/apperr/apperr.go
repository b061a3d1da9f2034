// Package apperr classifies errors crossing the storage boundary into the
// small closed set the HTTP layer maps to status codes. Stores wrap driver
// errors with %w and never classify themselves; classification happens once,
// here, at the boundary.
package apperr

import (
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Kind int

const (
	Unexpected Kind = iota
	Conflict
	NotFound
	InvalidReference
	ValidationFailed
)

func (k Kind) String() string {
	switch k {
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case InvalidReference:
		return "invalid_reference"
	case ValidationFailed:
		return "validation_failed"
	default:
		return "unexpected"
	}
}

// ErrNotFound marks writes that targeted a missing or already-deleted row.
// Reads never return it; absence on a read is a nil result.
var ErrNotFound = errors.New("not found")

// errValidation is the classification anchor for Validation errors.
var errValidation = errors.New("validation failed")

// Validation returns a caller-input error carrying the given message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errValidation}, args...)...)
}

// Classify maps an error to its Kind. Driver constraint codes become
// Conflict or InvalidReference; anything unrecognized is Unexpected.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, errValidation):
		return ValidationFailed
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return Conflict
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return InvalidReference
		}
	}
	return Unexpected
}
