// Package apperr defines the application-wide error taxonomy.
//
// Errors are tagged with a Kind rather than modeled as one subtype per HTTP
// status. Services construct apperr errors close to the violation; everything
// else is wrapped as Internal with the original message preserved. The HTTP
// boundary translates a Kind to a status code through a single mapping table
// (see Status), so no other layer needs to know about HTTP at all.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the stable categories the API exposes.
type Kind int

const (
	// KindInternal is the catch-all for unexpected failures, including
	// upstream AI-backend errors. It is the zero value on purpose.
	KindInternal Kind = iota
	// KindBadRequest marks malformed input or invalid request state.
	KindBadRequest
	// KindUnauthorized marks missing or invalid credentials.
	KindUnauthorized
	// KindForbidden marks an authenticated caller with insufficient role.
	KindForbidden
	// KindNotFound marks a missing entity.
	KindNotFound
	// KindConflict marks a uniqueness violation (e.g. duplicate email).
	KindConflict
)

// statusByKind is the single Kind→HTTP status mapping table.
var statusByKind = map[Kind]int{
	KindInternal:     http.StatusInternalServerError,
	KindBadRequest:   http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
}

// codeByKind maps a Kind to the stable machine-readable code used in error
// envelopes.
var codeByKind = map[Kind]string{
	KindInternal:     "internal_error",
	KindBadRequest:   "bad_request",
	KindUnauthorized: "unauthorized",
	KindForbidden:    "forbidden",
	KindNotFound:     "not_found",
	KindConflict:     "conflict",
}

// Error is a tagged application error. Message is safe to return to clients;
// Err (optional) carries the underlying cause for logs and errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap annotates err as an Error of the given kind. A nil err yields nil.
func Wrap(kind Kind, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internal wraps err as a generic internal error carrying the original
// message, matching the "wrap everything else" policy of the service layer.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// BadRequest constructs a bad-request error.
func BadRequest(message string) *Error { return New(KindBadRequest, message) }

// Unauthorized constructs an unauthorized error.
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// Forbidden constructs a forbidden error.
func Forbidden(message string) *Error { return New(KindForbidden, message) }

// NotFound constructs a not-found error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict constructs a conflict error.
func Conflict(message string) *Error { return New(KindConflict, message) }

// KindOf extracts the Kind of err. Non-apperr errors (and nil) report
// KindInternal, mirroring the wrap-as-internal policy.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

// Status maps err to the HTTP status code for its kind.
func Status(err error) int { return statusByKind[KindOf(err)] }

// Code maps err to the stable machine-readable code for its kind.
func Code(err error) string { return codeByKind[KindOf(err)] }

// MessageOf returns the client-safe message of err. For non-apperr errors it
// returns a generic message so internals never leak verbatim.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal server error"
}
