package store

import "errors"

// ErrNotFound is returned by lookups and updates targeting a record
// that does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input on a single field. The HTTP
// layer maps it to a 400 response carrying the field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
