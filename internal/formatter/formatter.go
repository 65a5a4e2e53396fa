// package formatter provides functions to export listening data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/shared"
	"github.com/desertthunder/sephire/internal/stats"
)

// TracksToCSV converts a ranked track list to CSV format with columns: Rank, ID, Name, Artist, Album, Duration, Popularity
func TracksToCSV(tracks []services.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "ID", "Name", "Artist", "Album", "Duration", "Popularity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Name,
			track.Artist,
			track.Album,
			shared.FormatDuration(track.DurationMS),
			strconv.Itoa(track.Popularity),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ArtistsToCSV converts a ranked artist list to CSV format with columns: Rank, ID, Name, Genres, Popularity, Followers
func ArtistsToCSV(artists []services.Artist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "ID", "Name", "Genres", "Popularity", "Followers"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, artist := range artists {
		record := []string{
			strconv.Itoa(i + 1),
			artist.ID,
			artist.Name,
			joinGenres(artist.Genres),
			strconv.Itoa(artist.Popularity),
			strconv.Itoa(artist.Followers),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// FeaturesToCSV converts audio feature rows to CSV format, one row per track.
func FeaturesToCSV(rows []stats.TrackFeatures) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "ID", "Name", "Artist", "Danceability", "Energy", "Valence", "Tempo", "Acousticness", "Instrumentalness"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, row := range rows {
		record := []string{
			strconv.Itoa(i + 1),
			row.TrackID,
			row.Name,
			row.Artist,
			formatFloat(row.Danceability),
			formatFloat(row.Energy),
			formatFloat(row.Valence),
			formatFloat(row.Tempo),
			formatFloat(row.Acousticness),
			formatFloat(row.Instrumentalness),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown converts a ranked track list to a Markdown report
func TracksToMarkdown(tracks []services.Track, timeRange services.TimeRange) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Top Tracks\n\n")
	buf.WriteString(fmt.Sprintf("**Time Range**: %s\n", timeRange))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	for i, track := range tracks {
		duration := shared.FormatDuration(track.DurationMS)
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Name, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ArtistsToMarkdown converts a ranked artist list to a Markdown report
func ArtistsToMarkdown(artists []services.Artist, timeRange services.TimeRange) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Top Artists\n\n")
	buf.WriteString(fmt.Sprintf("**Time Range**: %s\n", timeRange))
	buf.WriteString(fmt.Sprintf("**Artists**: %d\n\n", len(artists)))

	for i, artist := range artists {
		genrePart := ""
		if len(artist.Genres) > 0 {
			genrePart = fmt.Sprintf(" (%s)", joinGenres(artist.Genres))
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, artist.Name, genrePart))
	}

	return buf.Bytes(), nil
}

// StatsToMarkdown converts a statistics report to a Markdown summary
func StatsToMarkdown(report *stats.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Listening Statistics\n\n")
	buf.WriteString("## Summary\n\n")
	buf.WriteString(fmt.Sprintf("**Top Tracks**: %d\n", report.Summary.TotalTopTracks))
	buf.WriteString(fmt.Sprintf("**Top Artists**: %d\n", report.Summary.TotalTopArtists))
	buf.WriteString(fmt.Sprintf("**Unique Genres**: %d\n", report.Summary.UniqueGenres))
	buf.WriteString(fmt.Sprintf("**Avg Track Popularity**: %.1f\n", report.Summary.AvgTrackPopularity))
	buf.WriteString(fmt.Sprintf("**Avg Artist Popularity**: %.1f\n", report.Summary.AvgArtistPopularity))
	buf.WriteString(fmt.Sprintf("**Estimated Listening Hours**: %.2f\n\n", report.Summary.EstimatedListeningHours))

	buf.WriteString("## Taste Profile\n\n")
	buf.WriteString(fmt.Sprintf("**Diversity Score**: %d\n", report.TasteProfile.DiversityScore))
	buf.WriteString(fmt.Sprintf("**Mainstream Factor**: %.1f\n", report.TasteProfile.MainstreamFactor))
	buf.WriteString(fmt.Sprintf("**Discovery Level**: %s\n\n", report.TasteProfile.DiscoveryLevel))

	if len(report.TopGenres) > 0 {
		buf.WriteString("## Top Genres\n\n")
		for i, genre := range report.TopGenres {
			buf.WriteString(fmt.Sprintf("%d. %s (%d)\n", i+1, genre.Genre, genre.Count))
		}
	}

	return buf.Bytes(), nil
}

// TracksToText converts a ranked track list to plain text format
func TracksToText(tracks []services.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Top Tracks: %d\n\n", len(tracks)))
	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Name))
	}

	return buf.Bytes(), nil
}

// ArtistsToText converts a ranked artist list to plain text format
func ArtistsToText(artists []services.Artist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Top Artists: %d\n\n", len(artists)))
	for i, artist := range artists {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, artist.Name))
	}

	return buf.Bytes(), nil
}

// ToStatsJSON generates a pretty JSON representation of the statistics report
func ToStatsJSON(report *stats.Report) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// CSVExportResult contains the paths of files created by WriteTracksCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteTracksCSVExport exports ranked tracks to CSV with an accompanying metadata JSON file.
//
// Defaults to the time range as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteTracksCSVExport(tracks []services.Track, timeRange services.TimeRange, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = string(timeRange)
	}

	csvData, err := TracksToCSV(tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadata := map[string]any{
		"time_range":   timeRange,
		"total_tracks": len(tracks),
	}
	metadataJSON, err := shared.MarshalJSON(metadata, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteStatsExport writes the statistics report as pretty JSON.
//
// Defaults to listening_stats.json as the filename.
func WriteStatsExport(report *stats.Report, filepath string) (string, error) {
	if filepath == "" {
		filepath = "listening_stats.json"
	}

	data, err := ToStatsJSON(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate stats JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write stats file: %w", err)
	}

	return filepath, nil
}

func joinGenres(genres []string) string {
	var buf bytes.Buffer
	for i, g := range genres {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(g)
	}
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
