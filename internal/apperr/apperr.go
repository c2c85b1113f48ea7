// Package apperr defines the error kinds shared by the job store, the
// workspace guard and the HTTP layer that maps them to status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Kinds are comparable with errors.Is.
type Kind string

const (
	KindInvalidArgument  Kind = "invalid_argument"
	KindNotFound         Kind = "not_found"
	KindForbidden        Kind = "forbidden"
	KindConflict         Kind = "conflict"
	KindStoreUnavailable Kind = "store_unavailable"
	KindIO               Kind = "io_error"
)

func (k Kind) Error() string { return string(k) }

// Sentinels for errors.Is checks.
var (
	ErrInvalidArgument  error = KindInvalidArgument
	ErrNotFound         error = KindNotFound
	ErrForbidden        error = KindForbidden
	ErrConflict         error = KindConflict
	ErrStoreUnavailable error = KindStoreUnavailable
	ErrIO               error = KindIO
)

// Error is a classified failure with an operation name and optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New builds an error without an underlying cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an error that keeps err as its cause.
func Wrap(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// Message returns the human readable message of a classified error without
// the operation prefix or cause, falling back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}
