package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sephire/internal/formatter"
	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/shared"
	"github.com/desertthunder/sephire/internal/stats"
	"github.com/urfave/cli/v3"
)

// Profile shows the authenticated user's Spotify profile.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	profile, err := r.spotify.Profile(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlainHeader(profile.Name)
	if profile.Email != "" {
		r.writePlain("Email: %s\n", profile.Email)
	}
	if profile.Country != "" {
		r.writePlain("Country: %s\n", profile.Country)
	}
	if profile.Subscription != "" {
		r.writePlain("Subscription: %s\n", profile.Subscription)
	}
	r.writePlain("Followers: %d\n", profile.Followers)
	if profile.SpotifyURL != "" {
		r.writePlain("Profile: %s\n", profile.SpotifyURL)
	}

	return nil
}

// TopTracks lists the user's top tracks for a time range.
func (r *Runner) TopTracks(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	timeRange, err := services.ParseTimeRange(cmd.String("time-range"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	r.logger.Infof("fetching top %d tracks for %s", limit, timeRange)

	tracks, err := r.spotify.TopTracks(ctx, limit, timeRange)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if path := cmd.String("output"); path != "" {
		switch format := cmd.String("format"); format {
		case "csv":
			result, err := formatter.WriteTracksCSVExport(tracks, timeRange, path)
			if err != nil {
				return err
			}
			r.writePlain("✓ Tracks exported to %s\n", result.TracksFile)
			r.writePlain("✓ Metadata written to %s\n", result.MetadataFile)
			return nil
		case "markdown", "md":
			data, err := formatter.TracksToMarkdown(tracks, timeRange)
			if err != nil {
				return err
			}
			return r.writeExport(path, data, len(tracks))
		case "txt", "text":
			data, err := formatter.TracksToText(tracks)
			if err != nil {
				return err
			}
			return r.writeExport(path, data, len(tracks))
		default:
			return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"time_range":   timeRange,
			"total_tracks": len(tracks),
			"tracks":       tracks,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Top %d tracks (%s):\n\n", len(tracks), timeRange)
	for i, track := range tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.Artist, track.Name)
		if track.Album != "" {
			r.writePlain("   Album: %s\n", track.Album)
		}
		r.writePlain("   Duration: %s  Popularity: %d\n", shared.FormatDuration(track.DurationMS), track.Popularity)
	}

	return nil
}

// TopArtists lists the user's top artists for a time range.
func (r *Runner) TopArtists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	timeRange, err := services.ParseTimeRange(cmd.String("time-range"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	r.logger.Infof("fetching top %d artists for %s", limit, timeRange)

	artists, err := r.spotify.TopArtists(ctx, limit, timeRange)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if path := cmd.String("output"); path != "" {
		var data []byte
		switch format := cmd.String("format"); format {
		case "csv":
			data, err = formatter.ArtistsToCSV(artists)
		case "markdown", "md":
			data, err = formatter.ArtistsToMarkdown(artists, timeRange)
		case "txt", "text":
			data, err = formatter.ArtistsToText(artists)
		default:
			return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
		}
		if err != nil {
			return err
		}
		return r.writeExport(path, data, len(artists))
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"time_range":    timeRange,
			"total_artists": len(artists),
			"artists":       artists,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Top %d artists (%s):\n\n", len(artists), timeRange)
	for i, artist := range artists {
		r.writePlain("%d. %s\n", i+1, artist.Name)
		if len(artist.Genres) > 0 {
			r.writePlain("   Genres: %v\n", artist.Genres)
		}
		r.writePlain("   Popularity: %d  Followers: %d\n", artist.Popularity, artist.Followers)
	}

	return nil
}

// Recent lists the user's recently played tracks.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")

	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	played, err := r.spotify.RecentlyPlayed(ctx, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"total_tracks":  len(played),
			"recent_tracks": played,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Recently played (%d tracks):\n\n", len(played))
	for i, entry := range played {
		r.writePlain("%d. %s - %s\n", i+1, entry.Artist, entry.Name)
		if entry.PlayedAt != "" {
			r.writePlain("   Played at: %s\n", entry.PlayedAt)
		}
	}

	return nil
}

// Stats computes the listening statistics report from top items.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	r.logger.Info("computing listening statistics")

	tracks, err := r.spotify.TopTracks(ctx, 50, services.MediumTerm)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	artists, err := r.spotify.TopArtists(ctx, 50, services.MediumTerm)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	report := stats.Compute(tracks, artists)

	if path := cmd.String("output"); path != "" {
		switch format := cmd.String("format"); format {
		case "json":
			written, err := formatter.WriteStatsExport(report, path)
			if err != nil {
				return err
			}
			r.writePlain("✓ Report written to %s\n", written)
			return nil
		case "markdown", "md":
			data, err := formatter.StatsToMarkdown(report)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write report file: %w", err)
			}
			r.writePlain("✓ Report written to %s\n", path)
			return nil
		default:
			return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Listening Stats")
	r.writePlain("Top tracks analyzed: %d\n", report.Summary.TotalTopTracks)
	r.writePlain("Top artists analyzed: %d\n", report.Summary.TotalTopArtists)
	r.writePlain("Unique genres: %d\n", report.Summary.UniqueGenres)
	r.writePlain("Avg track popularity: %.1f\n", report.Summary.AvgTrackPopularity)
	r.writePlain("Avg artist popularity: %.1f\n", report.Summary.AvgArtistPopularity)
	r.writePlain("Estimated listening hours: %.2f\n", report.Summary.EstimatedListeningHours)
	r.writePlain("\nDiscovery level: %s (mainstream factor %.1f)\n", report.TasteProfile.DiscoveryLevel, report.TasteProfile.MainstreamFactor)

	if len(report.TopGenres) > 0 {
		r.writePlain("\nTop genres:\n")
		for i, genre := range report.TopGenres {
			r.writePlain("%d. %s (%d)\n", i+1, genre.Genre, genre.Count)
		}
	}

	return nil
}

// Features builds the audio-features dataset for the user's top tracks.
func (r *Runner) Features(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	batchSize := cmd.Int("batch-size")
	timeRange, err := services.ParseTimeRange(cmd.String("time-range"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	opts := stats.FeaturesOpts{
		Limit:     limit,
		TimeRange: timeRange,
		BatchSize: batchSize,
		Workers:   r.config.Analytics.Workers,
		RateLimit: r.config.Analytics.RateLimit,
	}

	prog := make(chan stats.ProgressUpdate, 50)
	go func() {
		for update := range prog {
			r.logger.Info(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
	}()

	rows, err := r.engine.Fetch(ctx, prog, opts)
	close(prog)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		data, err := formatter.FeaturesToCSV(rows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write features file: %w", err)
		}
		r.writePlain("✓ Audio features exported to %s (%d tracks)\n", path, len(rows))
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"total_tracks":   len(rows),
			"audio_features": rows,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Audio features for %d tracks (%s):\n\n", len(rows), timeRange)
	for i, row := range rows {
		r.writePlain("%d. %s - %s\n", i+1, row.Artist, row.Name)
		r.writePlain("   danceability %.2f  energy %.2f  valence %.2f  tempo %.1f\n", row.Danceability, row.Energy, row.Valence, row.Tempo)
	}

	return nil
}
