package stats

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/shared"
	th "github.com/desertthunder/sephire/internal/testing"
)

func trackFixtures(n int) []services.Track {
	tracks := make([]services.Track, n)
	for i := range tracks {
		tracks[i] = services.Track{
			ID:     string(rune('a' + i)),
			Name:   "Track " + string(rune('A'+i)),
			Artist: "Artist",
		}
	}
	return tracks
}

func featuresFor(ids []string) []services.AudioFeatures {
	features := make([]services.AudioFeatures, len(ids))
	for i, id := range ids {
		features[i] = services.AudioFeatures{TrackID: id, Energy: 0.5}
	}
	return features
}

func TestFeaturesEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("joins tracks with batch features in order", func(t *testing.T) {
		var batchCalls atomic.Int64

		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				return trackFixtures(5), nil
			},
			AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error) {
				batchCalls.Add(1)
				return featuresFor(trackIDs), nil
			},
		}

		rows, err := NewFeaturesEngine(mock).Fetch(ctx, nil, FeaturesOpts{Limit: 5, BatchSize: 2, RateLimit: 1000})
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}

		if len(rows) != 5 {
			t.Fatalf("expected 5 rows, got %d", len(rows))
		}
		if got := batchCalls.Load(); got != 3 {
			t.Errorf("expected 3 batch calls for 5 tracks at size 2, got %d", got)
		}
		for i, row := range rows {
			if row.TrackID != string(rune('a'+i)) {
				t.Errorf("row %d out of order: got track %s", i, row.TrackID)
			}
			if row.Energy != 0.5 {
				t.Errorf("row %d missing joined features", i)
			}
		}
	})

	t.Run("falls back to per-track requests on 403", func(t *testing.T) {
		var individualCalls atomic.Int64

		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				return trackFixtures(3), nil
			},
			AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error) {
				return nil, &services.UpstreamError{StatusCode: http.StatusForbidden, Message: "batch endpoint deprecated"}
			},
			AudioFeatureFn: func(ctx context.Context, trackID string) (*services.AudioFeatures, error) {
				individualCalls.Add(1)
				return &services.AudioFeatures{TrackID: trackID, Valence: 0.9}, nil
			},
		}

		rows, err := NewFeaturesEngine(mock).Fetch(ctx, nil, FeaturesOpts{Limit: 3, BatchSize: 10, RateLimit: 1000})
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}

		if len(rows) != 3 {
			t.Fatalf("expected 3 rows from fallback, got %d", len(rows))
		}
		if got := individualCalls.Load(); got != 3 {
			t.Errorf("expected 3 individual calls, got %d", got)
		}
		if rows[0].Valence != 0.9 {
			t.Errorf("fallback features not joined")
		}
	})

	t.Run("non-403 batch failure drops the batch", func(t *testing.T) {
		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				return trackFixtures(4), nil
			},
			AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error) {
				if trackIDs[0] == "a" {
					return nil, &services.UpstreamError{StatusCode: http.StatusInternalServerError, Message: "oops"}
				}
				return featuresFor(trackIDs), nil
			},
		}

		rows, err := NewFeaturesEngine(mock).Fetch(ctx, nil, FeaturesOpts{Limit: 4, BatchSize: 2, RateLimit: 1000})
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}

		if len(rows) != 2 {
			t.Fatalf("expected 2 rows after dropping a batch, got %d", len(rows))
		}
		if rows[0].TrackID != "c" || rows[1].TrackID != "d" {
			t.Errorf("unexpected surviving rows: %s, %s", rows[0].TrackID, rows[1].TrackID)
		}
	})

	t.Run("all features unavailable", func(t *testing.T) {
		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				return trackFixtures(2), nil
			},
			AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error) {
				return nil, &services.UpstreamError{StatusCode: http.StatusBadGateway, Message: "down"}
			},
		}

		_, err := NewFeaturesEngine(mock).Fetch(ctx, nil, FeaturesOpts{Limit: 2, RateLimit: 1000})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("no top tracks", func(t *testing.T) {
		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				return nil, nil
			},
		}

		_, err := NewFeaturesEngine(mock).Fetch(ctx, nil, FeaturesOpts{RateLimit: 1000})
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("progress updates never block", func(t *testing.T) {
		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				return trackFixtures(4), nil
			},
			AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error) {
				return featuresFor(trackIDs), nil
			},
		}

		// Unbuffered channel with no reader; sends must be dropped, not block.
		prog := make(chan ProgressUpdate)

		rows, err := NewFeaturesEngine(mock).Fetch(ctx, prog, FeaturesOpts{Limit: 4, BatchSize: 2, RateLimit: 1000})
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if len(rows) != 4 {
			t.Errorf("expected 4 rows, got %d", len(rows))
		}
	})

	t.Run("limit clamped to provider maximum", func(t *testing.T) {
		var seenLimit int

		mock := &th.MockService{
			TopTracksFn: func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
				seenLimit = limit
				return trackFixtures(1), nil
			},
			AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error) {
				return featuresFor(trackIDs), nil
			},
		}

		if _, err := NewFeaturesEngine(mock).Fetch(ctx, nil, FeaturesOpts{Limit: 200, RateLimit: 1000}); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if seenLimit != 50 {
			t.Errorf("expected limit clamped to 50, got %d", seenLimit)
		}
	})

	t.Run("nil service", func(t *testing.T) {
		_, err := NewFeaturesEngine(nil).Fetch(ctx, nil, FeaturesOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestBatchTracks(t *testing.T) {
	tracks := trackFixtures(5)

	batches := batchTracks(tracks, 2)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[2]) != 1 {
		t.Errorf("unexpected batch sizes: %d, %d", len(batches[0]), len(batches[2]))
	}

	if got := batchTracks(nil, 2); got != nil {
		t.Errorf("expected nil batches for no tracks, got %v", got)
	}
}
