// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflicting update")
	ErrSkipped    = errors.New("no action needed")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Skipped is not a failure: pipeline endpoints invoked out of order
// answer 200 with an explicit skipped outcome so callers can tell it
// apart from an applied transition.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSkipped):
		Skipped(w, err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
