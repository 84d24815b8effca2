// Package apperrors holds the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// StatusCode maps err to the HTTP status it should be reported with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns a client-facing description of err. Internal errors are
// not described; wrapped sentinels lose their trailing ": <sentinel>" text.
func Message(err error) string {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		return "Internal server error"
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict} {
		if msg == sentinel.Error() {
			return msg
		}
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return msg
}
