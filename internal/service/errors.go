package service

import (
	"errors"
	"strings"
)

// User input errors. They are always wrapped in a *FieldError naming the
// offending field, and recovered by re-rendering the submitted form.
var (
	ErrMissingField     = errors.New("missing field")
	ErrTooLong          = errors.New("value too long")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidRating    = errors.New("invalid rating")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrDuplicateEmail   = errors.New("duplicate email")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidURL       = errors.New("invalid url")
)

// Authentication and authorization errors. Operations return these before
// touching any state.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
)

// FieldError ties a user input error to the form field that caused it.
type FieldError struct {
	Field   string
	Err     error
	Message string
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }

// ValidationError collects every field that failed for one submission.
// errors.Is matches any of the wrapped sentinels.
type ValidationError struct {
	Fields []*FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	out := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f
	}
	return out
}

// For returns the message for a field, or "" when it passed.
func (e *ValidationError) For(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Error()
		}
	}
	return ""
}

func (e *ValidationError) add(field string, err error, msg string) {
	e.Fields = append(e.Fields, &FieldError{Field: field, Err: err, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// fieldErr builds a single-field validation error.
func fieldErr(field string, err error, msg string) error {
	v := &ValidationError{}
	v.add(field, err, msg)
	return v
}
