// package services defines interface Service for interacting with the Spotify Web API
package services

import (
	"context"
	"fmt"
	"net/url"
)

// Service defines the interface for listening-data providers.
type Service interface {
	// Profile retrieves the authenticated user's profile.
	Profile(ctx context.Context) (*UserProfile, error)

	// TopTracks retrieves the user's most played tracks for a time range.
	TopTracks(ctx context.Context, limit int, timeRange TimeRange) ([]Track, error)

	// TopArtists retrieves the user's most played artists for a time range.
	TopArtists(ctx context.Context, limit int, timeRange TimeRange) ([]Artist, error)

	// RecentlyPlayed retrieves the user's listening history, newest first.
	RecentlyPlayed(ctx context.Context, limit int) ([]PlayedTrack, error)

	// Track retrieves a single track by ID.
	Track(ctx context.Context, trackID string) (*Track, error)

	// AudioFeatures retrieves audio analysis features for up to 50 tracks.
	AudioFeatures(ctx context.Context, trackIDs []string) ([]AudioFeatures, error)

	// AudioFeature retrieves audio analysis features for a single track.
	AudioFeature(ctx context.Context, trackID string) (*AudioFeatures, error)

	// Get performs a raw authenticated GET against the provider and returns the body.
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)

	// Name returns the name of the provider (e.g., "Spotify")
	Name() string
}

// TimeRange selects the window over which top tracks/artists are computed.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // Last 4 weeks
	MediumTerm TimeRange = "medium_term" // Last 6 months
	LongTerm   TimeRange = "long_term"   // All time
)

// ParseTimeRange validates a time range string, defaulting to [MediumTerm] when empty.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return MediumTerm, nil
	case ShortTerm, MediumTerm, LongTerm:
		return TimeRange(s), nil
	default:
		return "", fmt.Errorf("invalid time range %q: must be short_term, medium_term or long_term", s)
	}
}

// UserProfile represents the authenticated user's account data.
type UserProfile struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Country      string `json:"country"`
	Followers    int    `json:"followers"`
	Subscription string `json:"subscription"`
	SpotifyURL   string `json:"spotify_url"`
}

// Track represents a music track normalized from the provider payload.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"` // All contributing artists, comma separated
	Album      string `json:"album"`
	Popularity int    `json:"popularity"`
	DurationMS int    `json:"duration_ms"`
	PreviewURL string `json:"preview_url,omitempty"`
	SpotifyURL string `json:"spotify_url"`
}

// Artist represents a music artist normalized from the provider payload.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  int      `json:"followers"`
	SpotifyURL string   `json:"spotify_url"`
}

// PlayedTrack is a track with its playback timestamp from the listening history.
type PlayedTrack struct {
	Track
	PlayedAt string `json:"played_at"`
}

// AudioFeatures holds the provider's audio analysis values for one track.
type AudioFeatures struct {
	TrackID          string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Loudness         float64 `json:"loudness"`
}

// UpstreamError is returned when the provider responds with a non-success
// status. It carries the provider's status code and message so the endpoint
// layer can surface them distinctly from authentication failures.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Message)
}
