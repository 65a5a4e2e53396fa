// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"testing"

	"github.com/desertthunder/sephire/internal/services"
)

// MockService is a configurable test double for [services.Service]
type MockService struct {
	ProfileFn        func(ctx context.Context) (*services.UserProfile, error)
	TopTracksFn      func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error)
	TopArtistsFn     func(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Artist, error)
	RecentlyPlayedFn func(ctx context.Context, limit int) ([]services.PlayedTrack, error)
	TrackFn          func(ctx context.Context, trackID string) (*services.Track, error)
	AudioFeaturesFn  func(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error)
	AudioFeatureFn   func(ctx context.Context, trackID string) (*services.AudioFeatures, error)
	GetFn            func(ctx context.Context, path string, query url.Values) ([]byte, error)
}

func (m *MockService) Profile(ctx context.Context) (*services.UserProfile, error) {
	if m.ProfileFn != nil {
		return m.ProfileFn(ctx)
	}
	return &services.UserProfile{}, nil
}

func (m *MockService) TopTracks(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Track, error) {
	if m.TopTracksFn != nil {
		return m.TopTracksFn(ctx, limit, timeRange)
	}
	return []services.Track{}, nil
}

func (m *MockService) TopArtists(ctx context.Context, limit int, timeRange services.TimeRange) ([]services.Artist, error) {
	if m.TopArtistsFn != nil {
		return m.TopArtistsFn(ctx, limit, timeRange)
	}
	return []services.Artist{}, nil
}

func (m *MockService) RecentlyPlayed(ctx context.Context, limit int) ([]services.PlayedTrack, error) {
	if m.RecentlyPlayedFn != nil {
		return m.RecentlyPlayedFn(ctx, limit)
	}
	return []services.PlayedTrack{}, nil
}

func (m *MockService) Track(ctx context.Context, trackID string) (*services.Track, error) {
	if m.TrackFn != nil {
		return m.TrackFn(ctx, trackID)
	}
	return &services.Track{ID: trackID}, nil
}

func (m *MockService) AudioFeatures(ctx context.Context, trackIDs []string) ([]services.AudioFeatures, error) {
	if m.AudioFeaturesFn != nil {
		return m.AudioFeaturesFn(ctx, trackIDs)
	}
	return []services.AudioFeatures{}, nil
}

func (m *MockService) AudioFeature(ctx context.Context, trackID string) (*services.AudioFeatures, error) {
	if m.AudioFeatureFn != nil {
		return m.AudioFeatureFn(ctx, trackID)
	}
	return &services.AudioFeatures{TrackID: trackID}, nil
}

func (m *MockService) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, path, query)
	}
	return []byte("{}"), nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
