// Package rferrors provides a Kind-tagged error taxonomy shared by every
// rfclientd component, so dispositions (drop, retry, exit) can be decided
// by switching on Kind rather than on error strings.
package rferrors

import (
	"errors"
	"fmt"
)

// Kind categorizes an error by the disposition it calls for.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransient
	KindMalformed
	KindUnresolvable
	KindInactivePort
	KindDuplicate
	KindUnknownOp
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindMalformed:
		return "malformed"
	case KindUnresolvable:
		return "unresolvable"
	case KindInactivePort:
		return "inactive_port"
	case KindDuplicate:
		return "duplicate"
	case KindUnknownOp:
		return "unknown_op"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a structured error carrying a Kind and an optional wrapped cause.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates an Error of the given Kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf creates a formatted Error of the given Kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Underlying: err}
}

// GetKind returns the Kind of err, or KindUnknown if err is not an *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err should terminate the agent.
func IsFatal(err error) bool {
	return GetKind(err) == KindFatal
}
