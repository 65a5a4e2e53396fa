package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/shared"
	th "github.com/desertthunder/sephire/internal/testing"
)

// newDataRouter builds the serve-mode router around a mock service.
func newDataRouter(mock *th.MockService) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Logging(shared.NewLogger(nil)))
	router.Handler(NewRootHandler())
	router.Handler(NewAnalyticsHandler(mock, nil))
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v: %s", err, rec.Body.String())
	}
	return body
}

func TestRootHandler(t *testing.T) {
	router := newDataRouter(&th.MockService{})

	t.Run("welcome directory", func(t *testing.T) {
		rec := get(router, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := decodeBody(t, rec)
		endpoints, ok := body["endpoints"].(map[string]any)
		if !ok {
			t.Fatalf("expected endpoints map, got %v", body)
		}
		if endpoints["top_tracks"] != "/top-tracks" {
			t.Errorf("expected top_tracks entry, got %v", endpoints)
		}
	})

	t.Run("health check", func(t *testing.T) {
		rec := get(router, "/health")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := decodeBody(t, rec)
		if body["status"] != "healthy" {
			t.Errorf("expected healthy status, got %v", body)
		}
	})

	t.Run("unknown path is 404", func(t *testing.T) {
		rec := get(router, "/nope")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("responses carry a correlation id", func(t *testing.T) {
		first := get(router, "/health")
		second := get(router, "/health")

		id := first.Header().Get("X-Request-ID")
		if len(id) != 36 {
			t.Fatalf("expected UUID request id, got %q", id)
		}
		if id == second.Header().Get("X-Request-ID") {
			t.Error("expected distinct ids per request")
		}
	})
}

func TestAnalyticsEndpoints(t *testing.T) {
	t.Run("profile", func(t *testing.T) {
		mock := &th.MockService{
			ProfileFn: func(ctx context.Context) (*services.UserProfile, error) {
				return &services.UserProfile{Name: "Test User", SpotifyURL: "https://open.spotify.test/user/u1"}, nil
			},
		}

		rec := get(newDataRouter(mock), "/my-profile")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decodeBody(t, rec)
		if body["spotify_profile"] != "https://open.spotify.test/user/u1" {
			t.Errorf("expected profile link, got %v", body)
		}
	})

	t.Run("top tracks forwards query params", func(t *testing.T) {
		var seenLimit int
		var seenRange services.TimeRange

		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				seenLimit = limit
				seenRange = timeRange
				return []services.Track{{ID: "t1", Name: "Song One"}}, nil
			},
		}

		rec := get(newDataRouter(mock), "/top-tracks?limit=25&time_range=short_term")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if seenLimit != 25 || seenRange != services.ShortTerm {
			t.Errorf("expected limit=25 short_term, got %d %s", seenLimit, seenRange)
		}

		body := decodeBody(t, rec)
		if body["total_tracks"] != float64(1) {
			t.Errorf("expected 1 track, got %v", body)
		}
	})

	t.Run("invalid limit is 400", func(t *testing.T) {
		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				t.Error("provider should not be called for invalid input")
				return nil, nil
			},
		}

		for _, limit := range []string{"0", "51", "abc"} {
			rec := get(newDataRouter(mock), "/top-tracks?limit="+limit)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: expected 400, got %d", limit, rec.Code)
			}
		}
	})

	t.Run("invalid time range is 400", func(t *testing.T) {
		rec := get(newDataRouter(&th.MockService{}), "/top-artists?time_range=bogus")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("stats aggregates medium term top items", func(t *testing.T) {
		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				if limit != 50 || timeRange != services.MediumTerm {
					t.Errorf("expected 50 medium_term tracks, got %d %s", limit, timeRange)
				}
				return []services.Track{{Popularity: 80, DurationMS: 200000}}, nil
			},
			TopArtistsFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Artist, error) {
				return []services.Artist{{Popularity: 60, Genres: []string{"indie"}}}, nil
			},
		}

		rec := get(newDataRouter(mock), "/my-stats")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := decodeBody(t, rec)
		summary, ok := body["summary"].(map[string]any)
		if !ok {
			t.Fatalf("expected summary, got %v", body)
		}
		if summary["avg_track_popularity"] != float64(80) {
			t.Errorf("expected avg popularity 80, got %v", summary)
		}
	})

	t.Run("track lookup with best effort features", func(t *testing.T) {
		mock := &th.MockService{
			TrackFn: func(ctx context.Context, trackID string) (*services.Track, error) {
				return &services.Track{ID: trackID, Name: "Song One"}, nil
			},
			AudioFeatureFn: func(ctx context.Context, trackID string) (*services.AudioFeatures, error) {
				return nil, &services.UpstreamError{StatusCode: http.StatusForbidden, Message: "nope"}
			},
		}

		rec := get(newDataRouter(mock), "/track/t1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 despite feature failure, got %d", rec.Code)
		}

		body := decodeBody(t, rec)
		if _, present := body["audio_features"]; present {
			t.Error("expected audio_features to be omitted on failure")
		}
		if _, present := body["track_info"]; !present {
			t.Error("expected track_info in response")
		}
	})

	t.Run("recently played", func(t *testing.T) {
		mock := &th.MockService{
			RecentlyPlayedFn: func(ctx context.Context, limit int) ([]services.PlayedTrack, error) {
				return []services.PlayedTrack{
					{Track: services.Track{ID: "t1", Name: "Song One"}, PlayedAt: "2024-01-01T00:00:00Z"},
				}, nil
			},
		}

		rec := get(newDataRouter(mock), "/recently-played")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := decodeBody(t, rec)
		if body["total_tracks"] != float64(1) {
			t.Errorf("expected 1 track, got %v", body)
		}
	})

	t.Run("audio features dataset", func(t *testing.T) {
		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				return []services.Track{{ID: "t1", Name: "Song One", Artist: "Artist One"}}, nil
			},
			AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error) {
				return []services.AudioFeatures{{TrackID: "t1", Energy: 0.8}}, nil
			},
		}

		rec := get(newDataRouter(mock), "/audio-features?limit=5")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decodeBody(t, rec)
		if body["total_tracks"] != float64(1) {
			t.Errorf("expected 1 row, got %v", body)
		}
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no session is 401", fmt.Errorf("%w: complete the login flow first", shared.ErrNotAuthenticated), http.StatusUnauthorized},
		{"authorization failure is 403", fmt.Errorf("%w: token refresh rejected", shared.ErrAuthorization), http.StatusForbidden},
		{"missing refresh token is 403", fmt.Errorf("%w: token expired", shared.ErrNoRefreshToken), http.StatusForbidden},
		{"provider failure is 502", &services.UpstreamError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}, http.StatusBadGateway},
		{"unknown failure is 500", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &th.MockService{
				ProfileFn: func(ctx context.Context) (*services.UserProfile, error) {
					return nil, tc.err
				},
			}

			rec := get(newDataRouter(mock), "/my-profile")
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("upstream status carried in body", func(t *testing.T) {
		mock := &th.MockService{
			ProfileFn: func(ctx context.Context) (*services.UserProfile, error) {
				return nil, &services.UpstreamError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
			},
		}

		rec := get(newDataRouter(mock), "/my-profile")
		body := decodeBody(t, rec)
		if body["upstream_status"] != float64(http.StatusTooManyRequests) {
			t.Errorf("expected upstream_status 429, got %v", body)
		}
	})
}
