package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown reports a condition the process cannot recover from, such as its database going away.
type shutdown struct {
	message string
	err     error
}

// NewShutdownError wraps err, if any, in an error that makes the API server shut down.
func NewShutdownError(err error, msg string) error {
	return &shutdown{message: msg, err: err}
}

func (s shutdown) Error() string {
	if s.err == nil {
		return s.message
	}
	return s.message + ": " + s.err.Error()
}

func (s shutdown) Unwrap() error { return s.err }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
