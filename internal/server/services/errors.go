package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies service failures. The set is closed; transports map each
// kind to their own status vocabulary.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindAlreadyExists
	KindUnauthenticated
	KindFailedPrecondition
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindAlreadyExists:
		return "already_exists"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindFailedPrecondition:
		return "failed_precondition"
	default:
		return "internal"
	}
}

// Error is the only error type returned by AuthService. Message is safe to
// show to callers; Fields holds per-field validation messages.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Unwrap exposes the underlying cause for logging; it is never shown to callers.
func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func invalidArgument(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg, Fields: fields}
}

func alreadyExists(msg string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: msg}
}

func unauthenticated(msg string, cause error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg, cause: cause}
}

func failedPrecondition(msg string, cause error) *Error {
	return &Error{Kind: KindFailedPrecondition, Message: msg, cause: cause}
}

func internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: cause}
}
