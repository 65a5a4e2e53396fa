package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/shared"
	"golang.org/x/time/rate"
)

// FeaturesOpts contains configuration for audio-feature dataset builds.
type FeaturesOpts struct {
	Limit     int                // Top tracks to analyze (default 20, max 50)
	TimeRange services.TimeRange // Time window for top tracks
	BatchSize int                // Tracks per features request (default 10)
	Workers   int                // Concurrent workers (default 5)
	RateLimit float64            // Feature requests per second (default 5)
}

// TrackFeatures is one dataset row: track identity joined with its audio analysis.
type TrackFeatures struct {
	TrackID          string  `json:"track_id"`
	Name             string  `json:"name"`
	Artist           string  `json:"artist"`
	Popularity       int     `json:"popularity"`
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

// FeaturesEngine builds audio-feature datasets from a provider service.
type FeaturesEngine struct {
	service services.Service
}

// NewFeaturesEngine creates an engine bound to the given service.
func NewFeaturesEngine(service services.Service) *FeaturesEngine {
	return &FeaturesEngine{service: service}
}

type featureBatch struct {
	index  int
	tracks []services.Track
}

// Fetch retrieves the user's top tracks and their audio features.
//
// Feature requests run in batches through a worker pool paced by a rate
// limiter. A batch rejected with HTTP 403 falls back to per-track requests;
// tracks whose features remain unavailable are omitted from the result.
func (e *FeaturesEngine) Fetch(ctx context.Context, prog chan<- ProgressUpdate, opts FeaturesOpts) ([]TrackFeatures, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 50 {
		opts.Limit = 50
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	sendProgress(prog, fetchTracksUpdate(opts.Limit))

	tracks, err := e.service.TopTracks(ctx, opts.Limit, opts.TimeRange)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no top tracks available", shared.ErrTrackNotFound)
	}

	batches := batchTracks(tracks, opts.BatchSize)
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan featureBatch, len(batches))
	results := make(chan []services.AudioFeatures, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go e.featureWorker(ctx, &wg, prog, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, batch := range batches {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, fetchBatchUpdate(i+1, len(batches)))
			jobs <- featureBatch{index: i, tracks: batch}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byTrack := map[string]services.AudioFeatures{}
	for features := range results {
		for _, f := range features {
			byTrack[f.TrackID] = f
		}
	}

	rows := make([]TrackFeatures, 0, len(tracks))
	for _, track := range tracks {
		f, ok := byTrack[track.ID]
		if !ok {
			continue
		}
		rows = append(rows, joinFeatures(track, f))
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no audio features available", shared.ErrAPIRequest)
	}

	return rows, nil
}

// featureWorker consumes batches and resolves their audio features.
func (e *FeaturesEngine) featureWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	prog chan<- ProgressUpdate,
	jobs <-chan featureBatch,
	results chan<- []services.AudioFeatures,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ids := make([]string, 0, len(job.tracks))
		for _, track := range job.tracks {
			if track.ID != "" {
				ids = append(ids, track.ID)
			}
		}
		if len(ids) == 0 {
			continue
		}

		features, err := e.service.AudioFeatures(ctx, ids)
		if err != nil {
			if isForbidden(err) {
				results <- e.fetchIndividually(ctx, prog, job.tracks)
			}
			// Other failures drop the batch; remaining batches still run.
			continue
		}

		results <- features
	}
}

// fetchIndividually resolves features one track at a time after a rejected batch.
func (e *FeaturesEngine) fetchIndividually(ctx context.Context, prog chan<- ProgressUpdate, tracks []services.Track) []services.AudioFeatures {
	features := make([]services.AudioFeatures, 0, len(tracks))

	for i, track := range tracks {
		select {
		case <-ctx.Done():
			return features
		default:
		}

		sendProgress(prog, fallbackUpdate(i+1, len(tracks), track.Name))

		f, err := e.service.AudioFeature(ctx, track.ID)
		if err != nil || f == nil {
			continue
		}
		if f.TrackID == "" {
			f.TrackID = track.ID
		}
		features = append(features, *f)
	}

	return features
}

// isForbidden reports whether the provider rejected the call with HTTP 403.
func isForbidden(err error) bool {
	var upstream *services.UpstreamError
	return errors.As(err, &upstream) && upstream.StatusCode == http.StatusForbidden
}

func batchTracks(tracks []services.Track, size int) [][]services.Track {
	var batches [][]services.Track
	for start := 0; start < len(tracks); start += size {
		end := start + size
		if end > len(tracks) {
			end = len(tracks)
		}
		batches = append(batches, tracks[start:end])
	}
	return batches
}

func joinFeatures(track services.Track, f services.AudioFeatures) TrackFeatures {
	return TrackFeatures{
		TrackID:          track.ID,
		Name:             track.Name,
		Artist:           track.Artist,
		Popularity:       track.Popularity,
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Valence:          f.Valence,
		Tempo:            f.Tempo,
		Loudness:         f.Loudness,
	}
}
