package services

import (
	"errors"
	"fmt"
)

// Kind classifies workflow failures so the transport can map them to a status.
type Kind string

const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindDependencyFailure Kind = "dependency_failure"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a workflow error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the caller-safe message of a workflow error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func invalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func dependencyFailure(msg string, err error) error {
	return &Error{Kind: KindDependencyFailure, Message: msg, Err: err}
}

func unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}
