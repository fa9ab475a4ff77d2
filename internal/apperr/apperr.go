package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP layer.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindDuplicate
	KindDatabase
)

// Error is an application error that knows how it should be reported.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest reports invalid input such as a malformed ID or date.
func BadRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Unauthorized reports a missing or expired session.
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// NotFound reports a missing resource.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Duplicate reports a uniqueness conflict.
func Duplicate(msg string) error {
	return &Error{Kind: KindDuplicate, Message: msg}
}

// Database wraps a storage failure. msg is shown to clients, err is not.
func Database(msg string, err error) error {
	return &Error{Kind: KindDatabase, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode maps err to an HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to a client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
