// Package oauth holds the protocol-level error type returned by every token
// service operation. The HTTP layer switches on Kind to pick status and shape.
package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is an RFC 6749 error code.
type ErrorKind string

const (
	InvalidRequest          ErrorKind = "invalid_request"
	InvalidClient           ErrorKind = "invalid_client"
	InvalidGrant            ErrorKind = "invalid_grant"
	InvalidScope            ErrorKind = "invalid_scope"
	InvalidToken            ErrorKind = "invalid_token"
	UnauthorizedClient      ErrorKind = "unauthorized_client"
	UnsupportedGrantType    ErrorKind = "unsupported_grant_type"
	UnsupportedResponseType ErrorKind = "unsupported_response_type"
	AccessDenied            ErrorKind = "access_denied"
	ServerError             ErrorKind = "server_error"
)

// HTTPStatus returns the fixed status for the kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case InvalidClient, AccessDenied, InvalidToken:
		return http.StatusUnauthorized
	case ServerError:
		return http.StatusInternalServerError
	case InvalidRequest, InvalidGrant, InvalidScope, UnauthorizedClient,
		UnsupportedGrantType, UnsupportedResponseType:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a protocol failure. Description is safe to show to clients;
// Err carries the cause for logs only.
type Error struct {
	Kind        ErrorKind
	Description string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can compare against the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && (t.Description == "" || t.Description == e.Description)
	}
	return false
}

func New(kind ErrorKind, description string) *Error {
	return &Error{Kind: kind, Description: description}
}

func Wrap(kind ErrorKind, description string, err error) *Error {
	return &Error{Kind: kind, Description: description, Err: err}
}

// Errorf builds an Error with a formatted description.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Description: fmt.Sprintf(format, args...)}
}

// Kind-only sentinels for errors.Is.
var (
	ErrInvalidRequest = &Error{Kind: InvalidRequest}
	ErrInvalidClient  = &Error{Kind: InvalidClient}
	ErrInvalidGrant   = &Error{Kind: InvalidGrant}
	ErrInvalidScope   = &Error{Kind: InvalidScope}
	ErrServerError    = &Error{Kind: ServerError}
)

// As extracts an *Error from err. Anything else becomes server_error
// with the original error kept as cause.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(ServerError, "internal server error", err)
}

// KindOf returns the kind of err, or "" when err is nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}
