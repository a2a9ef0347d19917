package httpx

import (
	"errors"
	"net/http"

	"github.com/moneta-erp/moneta/internal/shared"
)

// ErrValidation marks request payloads that fail validation.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidPeriod):
		Problem(w, http.StatusBadRequest, "Invalid Period", err.Error())
	case errors.Is(err, shared.ErrAlreadyLocked):
		Problem(w, http.StatusConflict, "Already Locked", err.Error())
	case errors.Is(err, shared.ErrEmptyPeriod):
		Problem(w, http.StatusUnprocessableEntity, "Empty Period", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
