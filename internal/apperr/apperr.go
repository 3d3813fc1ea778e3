// Package apperr defines the error taxonomy shared by the services, the auth
// gate and the HTTP boundary. An Error carries a Kind (what the caller is told)
// and a Reason (why it happened, for logs only), so several internal causes can
// render as one external response.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an Error and decides its HTTP status.
type Kind int

const (
	Internal Kind = iota
	MissingFields
	InvalidInput
	DuplicateEmail
	InvalidCredentials
	TokenMissing
	InvalidToken
	PrincipalNotFound
	Configuration
	NotFound
	Forbidden
)

var kindNames = map[Kind]string{
	Internal:           "internal",
	MissingFields:      "missing_fields",
	InvalidInput:       "invalid_input",
	DuplicateEmail:     "duplicate_email",
	InvalidCredentials: "invalid_credentials",
	TokenMissing:       "token_missing",
	InvalidToken:       "invalid_token",
	PrincipalNotFound:  "principal_not_found",
	Configuration:      "configuration",
	NotFound:           "not_found",
	Forbidden:          "forbidden",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code a Kind is rendered with.
func (k Kind) Status() int {
	switch k {
	case MissingFields, InvalidInput, DuplicateEmail:
		return http.StatusBadRequest
	case InvalidCredentials, TokenMissing, InvalidToken, PrincipalNotFound:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is the application error type.
type Error struct {
	Kind Kind
	// Message is safe to show to API callers.
	Message string
	// Reason is a short machine-readable cause for logs and metrics.
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, apperr.E(apperr.NotFound)).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Reason == "" && t.Err == nil
}

// New constructs an Error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap constructs an Error that keeps err as its cause.
func Wrap(kind Kind, msg, reason string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Reason: reason, Err: err}
}

// E returns a bare Error of the given kind, used as an errors.Is target.
func E(kind Kind) *Error {
	return &Error{Kind: kind}
}

// KindOf returns the Kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Status maps any error to an HTTP status code.
func Status(err error) int {
	return KindOf(err).Status()
}

// PublicMessage returns the message that may be shown to API callers. Errors
// outside the taxonomy never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" && e.Kind != Internal {
		return e.Message
	}
	return "Internal server error"
}

// ReasonOf returns the internal reason tag of err, falling back to its kind.
func ReasonOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return Internal.String()
	}
	if e.Reason != "" {
		return e.Reason
	}
	return e.Kind.String()
}
