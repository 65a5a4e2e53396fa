package server

import (
	"net/http"
)

// RootHandler serves the welcome directory and health check.
type RootHandler struct{}

// NewRootHandler creates the root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// Routes returns the HTTP routes this handler serves.
//
// The "/{$}" pattern matches the bare root only, so unknown paths 404.
func (h *RootHandler) Routes() []string {
	return []string{"/{$}", "/health"}
}

func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Sephire API - Spotify data server for notebook analysis",
			"status":  "running",
			"endpoints": map[string]string{
				"login":           "/login",
				"profile":         "/my-profile",
				"top_tracks":      "/top-tracks",
				"top_artists":     "/top-artists",
				"stats":           "/my-stats",
				"audio_features":  "/audio-features",
				"recently_played": "/recently-played",
			},
		})
	case "/health":
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "sephire-api",
		})
	default:
		http.NotFound(w, r)
	}
}
