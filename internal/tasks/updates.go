package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event while the dashboard loads.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Completed fetches so far
	Total   int    // Total fetches in this load
	Message string // Human-readable message for display
	Err     error  // Set when the fetch for Phase failed
}

// Operation phase enumeration
type Phase int

const (
	FetchProfile Phase = iota
	FetchTopArtists
	FetchTopTracks
	FetchRecent
	FetchPlaylists
	AggregateGenres
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case FetchTopArtists:
		return "fetch_top_artists"
	case FetchTopTracks:
		return "fetch_top_tracks"
	case FetchRecent:
		return "fetch_recent"
	case FetchPlaylists:
		return "fetch_playlists"
	case AggregateGenres:
		return "aggregate_genres"
	default:
		return ""
	}
}

// Label is the resource name shown to users.
func (p Phase) Label() string {
	switch p {
	case FetchProfile:
		return "profile"
	case FetchTopArtists:
		return "top artists"
	case FetchTopTracks:
		return "top tracks"
	case FetchRecent:
		return "recently played"
	case FetchPlaylists:
		return "playlists"
	case AggregateGenres:
		return "genres"
	default:
		return ""
	}
}

func fetchedUpdate(phase Phase, step, total int, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d)", step, total, phase.Label(), count),
	}
}

func fetchFailedUpdate(phase Phase, step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s unavailable", step, total, phase.Label()),
		Err:     err,
	}
}

func genresUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AggregateGenres,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Aggregated %d genres", count),
	}
}
