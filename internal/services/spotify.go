// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/sephire/internal/session"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type followers struct {
	Total int `json:"total"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	Email        string       `json:"email"`
	Country      string       `json:"country"`
	Product      string       `json:"product"` // premium, free, etc.
	Followers    followers    `json:"followers"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	Popularity   int             `json:"popularity"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	Popularity   int          `json:"popularity"`
	Followers    followers    `json:"followers"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	TotalTracks int    `json:"total_tracks"`
}

// spotifyTopItems is the paginated envelope returned by /me/top/{type}.
type spotifyTopItems[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// spotifyPlayHistory is one entry of /me/player/recently-played.
type spotifyPlayHistory struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

type spotifyRecentlyPlayed struct {
	Items []spotifyPlayHistory `json:"items"`
}

type spotifyAudioFeatures struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}

// spotifyError is the provider's error envelope.
type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// OAuthConfig builds the Spotify OAuth2 configuration from credentials.
//
// Requires client_id and client_secret; redirect_uri defaults to the local
// callback. Scopes cover profile, top items and listening history reads.
func OAuthConfig(credentials map[string]string) (*oauth2.Config, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8000/callback"
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-top-read",
			"user-read-recently-played",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyAuthURL,
			TokenURL:  spotifyTokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}, nil
}

// SpotifyService implements the [Service] interface for Spotify API interactions.
//
// Every request obtains a valid access token from the [session.Manager]
// first, so token refresh is transparent to callers.
type SpotifyService struct {
	session    *session.Manager
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a Spotify service bound to the given session manager.
func NewSpotifyService(mgr *session.Manager, client *http.Client) *SpotifyService {
	if client == nil {
		client = http.DefaultClient
	}

	return &SpotifyService{
		session:    mgr,
		httpClient: client,
		baseURL:    spotifyBaseURL,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Session returns the underlying session manager.
func (s *SpotifyService) Session() *session.Manager {
	return s.session
}

// Get performs a raw authenticated GET request and returns the response body.
//
// Non-2xx responses are returned as [*UpstreamError] with the provider's
// status and message. Authentication failures surface from the session
// manager before any request is sent.
func (s *SpotifyService) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	accessToken, err := s.session.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	apiURL := s.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstream := &UpstreamError{StatusCode: resp.StatusCode}
		var se spotifyError
		if err := json.Unmarshal(body, &se); err == nil {
			upstream.Message = se.Error.Message
		}
		return nil, upstream
	}

	return body, nil
}

// doRequest performs an authenticated GET and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, path string, query url.Values, result any) error {
	body, err := s.Get(ctx, path, query)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Profile retrieves the current authenticated user's profile.
func (s *SpotifyService) Profile(ctx context.Context) (*UserProfile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}

	return &UserProfile{
		Name:         user.DisplayName,
		Email:        user.Email,
		Country:      user.Country,
		Followers:    user.Followers.Total,
		Subscription: user.Product,
		SpotifyURL:   user.ExternalURLs.Spotify,
	}, nil
}

// TopTracks retrieves the user's top tracks for the given time range.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int, timeRange TimeRange) ([]Track, error) {
	query := topItemsQuery(limit, timeRange)

	var response spotifyTopItems[SpotifyTrack]
	if err := s.doRequest(ctx, "/me/top/tracks", query, &response); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Items))
	for _, st := range response.Items {
		tracks = append(tracks, mapTrack(st))
	}

	return tracks, nil
}

// TopArtists retrieves the user's top artists for the given time range.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int, timeRange TimeRange) ([]Artist, error) {
	query := topItemsQuery(limit, timeRange)

	var response spotifyTopItems[SpotifyArtist]
	if err := s.doRequest(ctx, "/me/top/artists", query, &response); err != nil {
		return nil, err
	}

	artists := make([]Artist, 0, len(response.Items))
	for _, sa := range response.Items {
		artists = append(artists, Artist{
			ID:         sa.ID,
			Name:       sa.Name,
			Genres:     sa.Genres,
			Popularity: sa.Popularity,
			Followers:  sa.Followers.Total,
			SpotifyURL: sa.ExternalURLs.Spotify,
		})
	}

	return artists, nil
}

// RecentlyPlayed retrieves the user's listening history, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]PlayedTrack, error) {
	query := url.Values{"limit": {strconv.Itoa(clampLimit(limit))}}

	var response spotifyRecentlyPlayed
	if err := s.doRequest(ctx, "/me/player/recently-played", query, &response); err != nil {
		return nil, err
	}

	played := make([]PlayedTrack, 0, len(response.Items))
	for _, item := range response.Items {
		played = append(played, PlayedTrack{
			Track:    mapTrack(item.Track),
			PlayedAt: item.PlayedAt,
		})
	}

	return played, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*Track, error) {
	var st SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", trackID)
	if err := s.doRequest(ctx, endpoint, nil, &st); err != nil {
		return nil, err
	}

	track := mapTrack(st)
	return &track, nil
}

// AudioFeatures retrieves audio features for multiple tracks (up to 50).
//
// Tracks without analysis data are omitted from the result.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackIDs []string) ([]AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("no track IDs provided")
	}
	if len(trackIDs) > 50 {
		return nil, fmt.Errorf("maximum 50 track IDs allowed")
	}

	query := url.Values{"ids": {strings.Join(trackIDs, ",")}}

	var response spotifyAudioFeatures
	if err := s.doRequest(ctx, "/audio-features", query, &response); err != nil {
		return nil, err
	}

	features := make([]AudioFeatures, 0, len(response.AudioFeatures))
	for _, f := range response.AudioFeatures {
		if f != nil {
			features = append(features, *f)
		}
	}

	return features, nil
}

// AudioFeature retrieves audio features for a single track.
func (s *SpotifyService) AudioFeature(ctx context.Context, trackID string) (*AudioFeatures, error) {
	var feature AudioFeatures
	endpoint := fmt.Sprintf("/audio-features/%s", trackID)
	if err := s.doRequest(ctx, endpoint, nil, &feature); err != nil {
		return nil, err
	}
	return &feature, nil
}

// mapTrack converts a provider track into the normalized DTO.
func mapTrack(st SpotifyTrack) Track {
	names := make([]string, 0, len(st.Artists))
	for _, artist := range st.Artists {
		names = append(names, artist.Name)
	}

	return Track{
		ID:         st.ID,
		Name:       st.Name,
		Artist:     strings.Join(names, ", "),
		Album:      st.Album.Name,
		Popularity: st.Popularity,
		DurationMS: st.DurationMS,
		PreviewURL: st.PreviewURL,
		SpotifyURL: st.ExternalURLs.Spotify,
	}
}

func topItemsQuery(limit int, timeRange TimeRange) url.Values {
	if timeRange == "" {
		timeRange = MediumTerm
	}
	return url.Values{
		"limit":      {strconv.Itoa(clampLimit(limit))},
		"time_range": {string(timeRange)},
	}
}

// clampLimit restricts limits to Spotify's accepted 1..50 window.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}
