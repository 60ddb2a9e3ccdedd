// Package apperr defines the error kinds the service layer reports to the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the discriminant handlers switch on to pick a status code.
type Kind uint8

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindCorruptCredential
	KindNotAuthorized
	KindNotFound
	KindIdentityStoreUnavailable
	KindInvalidInput
	KindConflict
)

var kindNames = map[Kind]string{
	KindInternal:                 "internal",
	KindUnauthenticated:          "unauthenticated",
	KindCorruptCredential:        "corrupt_credential",
	KindNotAuthorized:            "not_authorized",
	KindNotFound:                 "not_found",
	KindIdentityStoreUnavailable: "identity_store_unavailable",
	KindInvalidInput:             "invalid_input",
	KindConflict:                 "conflict",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error pairs a Kind with a client-safe reason. Err holds the internal cause
// and is never rendered to clients.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + ": " + e.Reason
	}
	return e.Kind.String() + ": " + e.Reason + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error without a cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap returns an *Error with err as its cause.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf reports the Kind of the outermost *Error in err's chain.
// Errors that carry no Kind are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf returns the client-safe reason of the outermost *Error in err's chain.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func Unauthenticated(reason string) *Error { return New(KindUnauthenticated, reason) }

func NotFound(reason string) *Error { return New(KindNotFound, reason) }

func NotAuthorized(reason string) *Error { return New(KindNotAuthorized, reason) }

func InvalidInput(reason string) *Error { return New(KindInvalidInput, reason) }

func Conflict(reason string) *Error { return New(KindConflict, reason) }
