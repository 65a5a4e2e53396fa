package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/sephire/internal/session"
	"github.com/desertthunder/sephire/internal/shared"
	"golang.org/x/oauth2"
)

// newTestService builds a SpotifyService backed by a stub resource server and
// a seeded, non-expiring session token.
func newTestService(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config, err := OAuthConfig(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to build oauth config: %v", err)
	}

	mgr := session.NewManager(config)
	mgr.SetToken(&oauth2.Token{AccessToken: "test_access_token"})

	srv := NewSpotifyService(mgr, nil)
	srv.baseURL = server.URL
	return srv
}

func TestOAuthConfig(t *testing.T) {
	t.Run("With Valid Credentials", func(t *testing.T) {
		config, err := OAuthConfig(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
			"redirect_uri":  "http://localhost:8000/callback",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.RedirectURL != "http://localhost:8000/callback" {
			t.Errorf("expected redirect URI to be set, got %s", config.RedirectURL)
		}
		if !strings.Contains(config.Endpoint.AuthURL, "accounts.spotify.com") {
			t.Errorf("expected Spotify auth endpoint, got %s", config.Endpoint.AuthURL)
		}
	})

	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := OAuthConfig(map[string]string{"client_secret": "test_client_secret"})
		if err == nil {
			t.Error("expected error for missing client_id")
		}
	})

	t.Run("Missing Client Secret", func(t *testing.T) {
		_, err := OAuthConfig(map[string]string{"client_id": "test_client_id"})
		if err == nil {
			t.Error("expected error for missing client_secret")
		}
	})

	t.Run("Default Redirect URI", func(t *testing.T) {
		config, err := OAuthConfig(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.RedirectURL != "http://127.0.0.1:8000/callback" {
			t.Errorf("expected default redirect URI, got %s", config.RedirectURL)
		}
	})
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("Get", func(t *testing.T) {
		t.Run("Attaches Bearer Token and Query", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer test_access_token" {
					t.Errorf("expected bearer header, got %q", got)
				}
				if got := r.URL.Query().Get("limit"); got != "5" {
					t.Errorf("expected limit=5, got %q", got)
				}
				w.Write([]byte(`{"ok":true}`))
			})

			body, err := srv.Get(ctx, "/me/top/tracks", url.Values{"limit": {"5"}})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(body) != `{"ok":true}` {
				t.Errorf("unexpected body %s", body)
			}
		})

		t.Run("Non-Success Status Returns UpstreamError", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":{"status":403,"message":"insufficient scope"}}`))
			})

			_, err := srv.Get(ctx, "/audio-features", nil)

			var upstream *UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if upstream.StatusCode != http.StatusForbidden {
				t.Errorf("expected status 403, got %d", upstream.StatusCode)
			}
			if upstream.Message != "insufficient scope" {
				t.Errorf("expected provider message, got %q", upstream.Message)
			}
		})

		t.Run("Unauthenticated Session Fails Before Request", func(t *testing.T) {
			requests := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
			}))
			t.Cleanup(server.Close)

			config, _ := OAuthConfig(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			})
			srv := NewSpotifyService(session.NewManager(config), nil)
			srv.baseURL = server.URL

			_, err := srv.Get(ctx, "/me", nil)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if requests != 0 {
				t.Errorf("expected no outbound request, got %d", requests)
			}
		})
	})

	t.Run("Profile", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" {
				t.Errorf("expected /me, got %s", r.URL.Path)
			}
			w.Write([]byte(`{
				"display_name": "Test User",
				"email": "test@example.com",
				"country": "US",
				"product": "premium",
				"followers": {"total": 42},
				"external_urls": {"spotify": "https://open.spotify.com/user/test"}
			}`))
		})

		profile, err := srv.Profile(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if profile.Name != "Test User" {
			t.Errorf("expected display name mapped, got %s", profile.Name)
		}
		if profile.Followers != 42 {
			t.Errorf("expected 42 followers, got %d", profile.Followers)
		}
		if profile.Subscription != "premium" {
			t.Errorf("expected premium subscription, got %s", profile.Subscription)
		}
	})

	t.Run("TopTracks", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("time_range"); got != "short_term" {
				t.Errorf("expected time_range=short_term, got %q", got)
			}
			w.Write([]byte(`{"items": [{
				"id": "t1",
				"name": "Song One",
				"artists": [{"name": "Artist A"}, {"name": "Artist B"}],
				"album": {"name": "Album X"},
				"duration_ms": 201000,
				"popularity": 64,
				"external_urls": {"spotify": "https://open.spotify.com/track/t1"}
			}]}`))
		})

		tracks, err := srv.TopTracks(ctx, 10, ShortTerm)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].Artist != "Artist A, Artist B" {
			t.Errorf("expected joined artist names, got %q", tracks[0].Artist)
		}
		if tracks[0].Album != "Album X" {
			t.Errorf("expected album mapped, got %q", tracks[0].Album)
		}
	})

	t.Run("TopArtists", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items": [{
				"id": "a1",
				"name": "Artist A",
				"genres": ["indie rock", "shoegaze"],
				"popularity": 55,
				"followers": {"total": 1200},
				"external_urls": {"spotify": "https://open.spotify.com/artist/a1"}
			}]}`))
		})

		artists, err := srv.TopArtists(ctx, 10, MediumTerm)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(artists) != 1 {
			t.Fatalf("expected 1 artist, got %d", len(artists))
		}
		if artists[0].Followers != 1200 {
			t.Errorf("expected follower count mapped, got %d", artists[0].Followers)
		}
		if len(artists[0].Genres) != 2 {
			t.Errorf("expected 2 genres, got %v", artists[0].Genres)
		}
	})

	t.Run("RecentlyPlayed", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items": [{
				"played_at": "2024-05-01T12:00:00Z",
				"track": {"id": "t1", "name": "Song One", "artists": [{"name": "Artist A"}], "album": {"name": "Album X"}, "duration_ms": 180000}
			}]}`))
		})

		played, err := srv.RecentlyPlayed(ctx, 50)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(played) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(played))
		}
		if played[0].PlayedAt != "2024-05-01T12:00:00Z" {
			t.Errorf("expected played_at mapped, got %s", played[0].PlayedAt)
		}
	})

	t.Run("AudioFeatures", func(t *testing.T) {
		t.Run("Drops Null Entries", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"audio_features": [{"id": "t1", "energy": 0.8}, null]}`))
			})

			features, err := srv.AudioFeatures(ctx, []string{"t1", "t2"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(features) != 1 {
				t.Fatalf("expected null entry dropped, got %d features", len(features))
			}
			if features[0].TrackID != "t1" {
				t.Errorf("expected track t1, got %s", features[0].TrackID)
			}
		})

		t.Run("Rejects Empty and Oversized Batches", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})

			if _, err := srv.AudioFeatures(ctx, nil); err == nil {
				t.Error("expected error for empty batch")
			}

			ids := make([]string, 51)
			if _, err := srv.AudioFeatures(ctx, ids); err == nil {
				t.Error("expected error for oversized batch")
			}
		})
	})
}

func TestParseTimeRange(t *testing.T) {
	cases := []struct {
		input   string
		want    TimeRange
		wantErr bool
	}{
		{"", MediumTerm, false},
		{"short_term", ShortTerm, false},
		{"medium_term", MediumTerm, false},
		{"long_term", LongTerm, false},
		{"all_time", "", true},
	}

	for _, tc := range cases {
		got, err := ParseTimeRange(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeRange(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeRange(%q): unexpected error %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("ParseTimeRange(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	if got := clampLimit(0); got != 20 {
		t.Errorf("expected default 20, got %d", got)
	}
	if got := clampLimit(100); got != 50 {
		t.Errorf("expected cap at 50, got %d", got)
	}
	if got := clampLimit(7); got != 7 {
		t.Errorf("expected passthrough, got %d", got)
	}
}
