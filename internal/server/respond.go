package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/shared"
)

// errorResponse is the JSON error body for all failed requests.
type errorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// writeJSON serializes data as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps the error taxonomy onto HTTP statuses:
// no session yet is 401, authorization failures are 403, provider failures
// are 502 with the provider status carried in the body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorResponse{Error: err.Error()}

	var upstream *services.UpstreamError
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrAuthorization), errors.Is(err, shared.ErrNoRefreshToken):
		status = http.StatusForbidden
	case errors.As(err, &upstream):
		status = http.StatusBadGateway
		body.UpstreamStatus = upstream.StatusCode
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidFlag):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, body)
}
