package core

import "github.com/pkg/errors"

// FieldError ties a validation message to the JSON field it concerns.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries a top-level error and/or per-field messages.
// The API layer renders Fields as a field->message map when present.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an unrecoverable integrity error that should take the
// service down instead of being returned to the client.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string { return s.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
