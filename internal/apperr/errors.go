// Package apperr defines the error taxonomy shared by every service layer:
// validation, precondition, not-found and store failures. Handlers map each
// kind to an HTTP status exactly once.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindPrecondition
	KindNotFound
	KindStore
)

// FieldError points at a single offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	kind   Kind
	msg    string
	fields []FieldError
	err    error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error        { return e.err }
func (e *Error) Kind() Kind           { return e.kind }
func (e *Error) Fields() []FieldError { return e.fields }

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{kind: KindValidation, msg: msg, fields: fields}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

func Preconditionf(format string, args ...interface{}) *Error {
	return &Error{kind: KindPrecondition, msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// Store wraps an underlying persistence failure. The cause is preserved for
// logging; callers never retry silently.
func Store(err error, msg string) *Error {
	return &Error{kind: KindStore, msg: msg, err: err}
}

// KindOf walks the error chain and reports the first *Error kind found.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsPrecondition(err error) bool { return KindOf(err) == KindPrecondition }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
