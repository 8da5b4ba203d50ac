package httpx

import (
	"errors"
	"net/http"

	"github.com/klarity-app/klarity/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Unexpected errors
// collapse to a generic 500; the cause is for the caller to log.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		Error(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Error(w, http.StatusConflict, "duplicate entry")
	default:
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}
