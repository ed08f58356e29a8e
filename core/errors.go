package core

import "github.com/pkg/errors"

// ErrNotFound is wrapped by every domain "not found" error so that transports can map them at once.
var ErrNotFound = errors.New("not found")

type notFound struct {
	message string
}

// NewNotFoundError returns an error matching ErrNotFound through IsNotFound.
func NewNotFoundError(msg string) error {
	return &notFound{message: msg}
}

func (nf notFound) Error() string {
	return nf.message
}

func IsNotFound(err error) bool {
	cause := errors.Cause(err)
	if cause == ErrNotFound {
		return true
	}
	_, ok := cause.(*notFound)
	return ok
}

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
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}
