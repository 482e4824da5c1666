package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// PublicError pairs an internal error with a message safe to show clients.
type PublicError struct {
	Err     error
	Message string
}

func (e *PublicError) Error() string { return e.Err.Error() }

func (e *PublicError) Unwrap() error { return e.Err }

// Public wraps err with a client-facing message.
func Public(err error, message string) error {
	return &PublicError{Err: err, Message: message}
}

// PublicMessage extracts the client-facing message from err, falling back
// to the provided default.
func PublicMessage(err error, fallback string) string {
	var pub *PublicError
	if errors.As(err, &pub) && pub.Message != "" {
		return pub.Message
	}
	return fallback
}

// RespondError maps domain errors to the API error envelope. Internal
// error text is never echoed to the client on unexpected failures.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, PublicMessage(err, "Invalid request"))
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, PublicMessage(err, "Invalid or expired session"))
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, PublicMessage(err, "Forbidden"))
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, PublicMessage(err, "Not found"))
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, PublicMessage(err, "Already exists"))
	default:
		Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
