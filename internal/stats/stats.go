package stats

import (
	"math"
	"sort"

	"github.com/desertthunder/sephire/internal/services"
)

// DiscoveryLevel describes how far off the mainstream the user's listening sits.
type DiscoveryLevel string

const (
	DiscoveryHigh       DiscoveryLevel = "High"       // avg track popularity < 50
	DiscoveryMedium     DiscoveryLevel = "Medium"     // avg track popularity < 70
	DiscoveryMainstream DiscoveryLevel = "Mainstream" // avg track popularity >= 70
)

// Summary holds headline numbers computed from the user's top items.
type Summary struct {
	TotalTopTracks          int     `json:"total_top_tracks"`
	TotalTopArtists         int     `json:"total_top_artists"`
	UniqueGenres            int     `json:"unique_genres"`
	AvgTrackPopularity      float64 `json:"avg_track_popularity"`
	AvgArtistPopularity     float64 `json:"avg_artist_popularity"`
	EstimatedListeningHours float64 `json:"estimated_listening_hours"`
}

// GenreCount is one genre with its occurrence count across top artists.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// TasteProfile condenses the summary into a coarse characterization.
type TasteProfile struct {
	DiversityScore   int            `json:"diversity_score"`
	MainstreamFactor float64        `json:"mainstream_factor"`
	DiscoveryLevel   DiscoveryLevel `json:"discovery_level"`
}

// Report is the full computed statistics payload.
type Report struct {
	Summary      Summary      `json:"summary"`
	TopGenres    []GenreCount `json:"top_genres"`
	TasteProfile TasteProfile `json:"music_taste_profile"`
}

// maxTopGenres caps the genre list in a report.
const maxTopGenres = 10

// Compute reduces top tracks and artists into a statistics report.
func Compute(tracks []services.Track, artists []services.Artist) *Report {
	genreCounts := map[string]int{}
	for _, artist := range artists {
		for _, genre := range artist.Genres {
			genreCounts[genre]++
		}
	}

	avgTrackPop := averageTrackPopularity(tracks)
	avgArtistPop := averageArtistPopularity(artists)

	totalDurationMS := 0
	for _, track := range tracks {
		totalDurationMS += track.DurationMS
	}

	return &Report{
		Summary: Summary{
			TotalTopTracks:          len(tracks),
			TotalTopArtists:         len(artists),
			UniqueGenres:            len(genreCounts),
			AvgTrackPopularity:      round1(avgTrackPop),
			AvgArtistPopularity:     round1(avgArtistPop),
			EstimatedListeningHours: round2(float64(totalDurationMS) / (1000 * 60 * 60)),
		},
		TopGenres: topGenres(genreCounts, maxTopGenres),
		TasteProfile: TasteProfile{
			DiversityScore:   len(genreCounts),
			MainstreamFactor: round1(avgTrackPop),
			DiscoveryLevel:   discoveryLevel(avgTrackPop),
		},
	}
}

// discoveryLevel buckets average track popularity.
func discoveryLevel(avgTrackPopularity float64) DiscoveryLevel {
	switch {
	case avgTrackPopularity < 50:
		return DiscoveryHigh
	case avgTrackPopularity < 70:
		return DiscoveryMedium
	default:
		return DiscoveryMainstream
	}
}

// topGenres returns the n most frequent genres, ties broken alphabetically
// for stable output.
func topGenres(counts map[string]int, n int) []GenreCount {
	genres := make([]GenreCount, 0, len(counts))
	for genre, count := range counts {
		genres = append(genres, GenreCount{Genre: genre, Count: count})
	}

	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Count != genres[j].Count {
			return genres[i].Count > genres[j].Count
		}
		return genres[i].Genre < genres[j].Genre
	})

	if len(genres) > n {
		genres = genres[:n]
	}
	return genres
}

func averageTrackPopularity(tracks []services.Track) float64 {
	if len(tracks) == 0 {
		return 0
	}
	sum := 0
	for _, track := range tracks {
		sum += track.Popularity
	}
	return float64(sum) / float64(len(tracks))
}

func averageArtistPopularity(artists []services.Artist) float64 {
	if len(artists) == 0 {
		return 0
	}
	sum := 0
	for _, artist := range artists {
		sum += artist.Popularity
	}
	return float64(sum) / float64(len(artists))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
