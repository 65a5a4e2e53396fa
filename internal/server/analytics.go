package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/shared"
	"github.com/desertthunder/sephire/internal/stats"
)

// AnalyticsHandler serves the listening-data endpoints consumed by notebooks.
//
// Every endpoint routes through the service facade, so token refresh is
// transparent and failures surface as 401/403/502 per the error taxonomy.
type AnalyticsHandler struct {
	service services.Service
	engine  *stats.FeaturesEngine
	logger  *log.Logger
}

// NewAnalyticsHandler creates the data endpoint handler.
func NewAnalyticsHandler(service services.Service, logger *log.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AnalyticsHandler{
		service: service,
		engine:  stats.NewFeaturesEngine(service),
		logger:  logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AnalyticsHandler) Routes() []string {
	return []string{
		"/my-profile",
		"/top-tracks",
		"/top-artists",
		"/my-stats",
		"/recently-played",
		"/audio-features",
		"/track/{id}",
	}
}

func (h *AnalyticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/my-profile":
		h.handleProfile(w, r)
	case "/top-tracks":
		h.handleTopTracks(w, r)
	case "/top-artists":
		h.handleTopArtists(w, r)
	case "/my-stats":
		h.handleStats(w, r)
	case "/recently-played":
		h.handleRecentlyPlayed(w, r)
	case "/audio-features":
		h.handleAudioFeatures(w, r)
	default:
		if id := r.PathValue("id"); id != "" {
			h.handleTrack(w, r, id)
			return
		}
		http.NotFound(w, r)
	}
}

func (h *AnalyticsHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":            profile,
		"spotify_profile": profile.SpotifyURL,
	})
}

func (h *AnalyticsHandler) handleTopTracks(w http.ResponseWriter, r *http.Request) {
	limit, timeRange, err := topItemsParams(r, 10)
	if err != nil {
		writeError(w, err)
		return
	}

	tracks, err := h.service.TopTracks(r.Context(), limit, timeRange)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"time_range":   timeRange,
		"total_tracks": len(tracks),
		"tracks":       tracks,
	})
}

func (h *AnalyticsHandler) handleTopArtists(w http.ResponseWriter, r *http.Request) {
	limit, timeRange, err := topItemsParams(r, 10)
	if err != nil {
		writeError(w, err)
		return
	}

	artists, err := h.service.TopArtists(r.Context(), limit, timeRange)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"time_range":    timeRange,
		"total_artists": len(artists),
		"artists":       artists,
	})
}

// handleStats aggregates the top 50 tracks and artists of the medium term
// window into the statistics report.
func (h *AnalyticsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tracks, err := h.service.TopTracks(ctx, 50, services.MediumTerm)
	if err != nil {
		writeError(w, err)
		return
	}

	artists, err := h.service.TopArtists(ctx, 50, services.MediumTerm)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats.Compute(tracks, artists))
}

func (h *AnalyticsHandler) handleRecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, 50)
	if err != nil {
		writeError(w, err)
		return
	}

	played, err := h.service.RecentlyPlayed(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_tracks":  len(played),
		"recent_tracks": played,
	})
}

func (h *AnalyticsHandler) handleAudioFeatures(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, 20)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.engine.Fetch(r.Context(), nil, stats.FeaturesOpts{Limit: limit})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_tracks":   len(rows),
		"audio_features": rows,
	})
}

func (h *AnalyticsHandler) handleTrack(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	track, err := h.service.Track(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	response := map[string]any{"track_info": track}

	// Audio features are best effort; the track lookup already succeeded.
	if features, err := h.service.AudioFeature(ctx, id); err == nil {
		response["audio_features"] = features
	}

	writeJSON(w, http.StatusOK, response)
}

// limitParam parses the limit query parameter, enforcing Spotify's 1..50 window.
func limitParam(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 50 {
		return 0, fmt.Errorf("%w: limit must be an integer between 1 and 50", shared.ErrInvalidArgument)
	}

	return limit, nil
}

// topItemsParams parses limit and time_range for the top item endpoints.
func topItemsParams(r *http.Request, fallbackLimit int) (int, services.TimeRange, error) {
	limit, err := limitParam(r, fallbackLimit)
	if err != nil {
		return 0, "", err
	}

	timeRange, err := services.ParseTimeRange(r.URL.Query().Get("time_range"))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	return limit, timeRange, nil
}
