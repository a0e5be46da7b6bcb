package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gskelton/gatehouse/auth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError translates the service error taxonomy to HTTP statuses. The
// internal cause of an unexpected failure is logged and never exposed
// in the response body.
func (a *API) mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrIncorrectCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect credentials")
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrInvalidPassword):
		writeError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, auth.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusBadRequest, "Missing auth token")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid auth token")
	default:
		a.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
