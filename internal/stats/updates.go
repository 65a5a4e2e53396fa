package stats

import "fmt"

// ProgressUpdate represents a progress event during a long-running fetch.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	FetchFeatures
	FeatureFallback
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case FetchFeatures:
		return "fetch_features"
	case FeatureFallback:
		return "feature_fallback"
	default:
		return ""
	}
}

func fetchTracksUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching top %d tracks...", total),
	}
}

func fetchBatchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching audio features (batch %d/%d)...", step, total),
	}
}

func fallbackUpdate(step, total int, trackName string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FeatureFallback,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Batch rejected, fetching %s individually...", trackName),
	}
}

// sendProgress delivers an update without blocking when the consumer is slow or absent.
func sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
