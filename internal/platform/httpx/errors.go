package httpx

import (
	"errors"
	"net/http"
)

// Errors callers wrap to pick the response status in RespondError.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("snapshot store unavailable")
)

// RespondError maps err onto a problem response. Unknown errors become a
// bare 500 so internal messages never reach the client.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnavailable):
		w.Header().Set("Retry-After", "5")
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", ErrUnavailable.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
