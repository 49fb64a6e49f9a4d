// package tasks builds the statistics views from the Spotify resource fetcher.
package tasks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/services"
	"github.com/desertthunder/statify/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Resource is the outcome of one fetch. A failed fetch keeps the zero Value and its Err.
type Resource[T any] struct {
	Value T
	Err   error
}

// OK reports whether the fetch succeeded.
func (r Resource[T]) OK() bool {
	return r.Err == nil
}

// Dashboard is the joined result of a [StatsEngine.Load].
type Dashboard struct {
	Profile     Resource[*models.Profile]
	TopArtists  Resource[[]models.Artist]
	TopTracks   Resource[[]models.Track]
	Recent      Resource[[]models.Play]
	Playlists   Resource[[]models.Playlist]
	Genres      []models.GenreCount
	TimeRange   models.TimeRange
	Unavailable []string // Labels of the resources that failed
}

// Expired reports whether any fetch was rejected with an expired token.
func (d *Dashboard) Expired() bool {
	for _, err := range []error{d.Profile.Err, d.TopArtists.Err, d.TopTracks.Err, d.Recent.Err, d.Playlists.Err} {
		if errors.Is(err, shared.ErrTokenExpired) {
			return true
		}
	}
	return false
}

// LoadOptions configures a dashboard load.
type LoadOptions struct {
	TimeRange models.TimeRange
	Limit     int
	Progress  chan<- ProgressUpdate // Optional; sends never block
}

// StatsEngine loads and derives the statistics views.
type StatsEngine struct {
	source services.StatsSource
	logger *log.Logger
}

// NewStatsEngine creates an engine reading from source.
func NewStatsEngine(source services.StatsSource, logger *log.Logger) *StatsEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &StatsEngine{source: source, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// fetcher runs one resource fetch inside a load, converting failure into a value.
type fetcher struct {
	g        *errgroup.Group
	logger   *log.Logger
	progress chan<- ProgressUpdate
	done     *atomic.Int32
	total    int
}

func fetch[T any](f fetcher, phase Phase, dst *Resource[T], size func(T) int, fn func() (T, error)) {
	f.g.Go(func() error {
		value, err := fn()
		step := int(f.done.Add(1))
		if err != nil {
			f.logger.Warn("resource unavailable", "resource", phase.Label(), "error", err)
			*dst = Resource[T]{Err: err}
			sendProgress(f.progress, fetchFailedUpdate(phase, step, f.total, err))
			return nil
		}
		*dst = Resource[T]{Value: value}
		sendProgress(f.progress, fetchedUpdate(phase, step, f.total, size(value)))
		return nil
	})
}

// Load fetches profile, top artists, top tracks, recent plays and playlists concurrently
// and joins them. A failed fetch is logged and marked unavailable; the others are
// unaffected and Load itself never fails.
func (e *StatsEngine) Load(ctx context.Context, opts LoadOptions) *Dashboard {
	timeRange := opts.TimeRange
	if timeRange == "" {
		timeRange = models.MediumTerm
	}
	limit := services.ClampLimit(opts.Limit)

	d := &Dashboard{TimeRange: timeRange}
	var g errgroup.Group
	f := fetcher{g: &g, logger: e.logger, progress: opts.Progress, done: &atomic.Int32{}, total: 5}

	fetch(f, FetchProfile, &d.Profile, func(*models.Profile) int { return 1 }, func() (*models.Profile, error) {
		return e.source.Profile(ctx)
	})
	fetch(f, FetchTopArtists, &d.TopArtists, func(v []models.Artist) int { return len(v) }, func() ([]models.Artist, error) {
		return e.source.TopArtists(ctx, timeRange, limit)
	})
	fetch(f, FetchTopTracks, &d.TopTracks, func(v []models.Track) int { return len(v) }, func() ([]models.Track, error) {
		return e.source.TopTracks(ctx, timeRange, limit)
	})
	fetch(f, FetchRecent, &d.Recent, func(v []models.Play) int { return len(v) }, func() ([]models.Play, error) {
		return e.source.RecentlyPlayed(ctx, limit)
	})
	fetch(f, FetchPlaylists, &d.Playlists, func(v []models.Playlist) int { return len(v) }, func() ([]models.Playlist, error) {
		return e.source.Playlists(ctx, limit)
	})

	_ = g.Wait()

	d.Genres = Genres(d.TopArtists.Value)
	sendProgress(opts.Progress, genresUpdate(len(d.Genres)))

	for phase, err := range map[Phase]error{
		FetchProfile:    d.Profile.Err,
		FetchTopArtists: d.TopArtists.Err,
		FetchTopTracks:  d.TopTracks.Err,
		FetchRecent:     d.Recent.Err,
		FetchPlaylists:  d.Playlists.Err,
	} {
		if err != nil {
			d.Unavailable = append(d.Unavailable, phase.Label())
		}
	}
	sort.Strings(d.Unavailable)

	return d
}

// Genres counts genre occurrences across artists, ordered by count descending then name.
func Genres(artists []models.Artist) []models.GenreCount {
	counts := make(map[string]int)
	for _, a := range artists {
		seen := make(map[string]bool, len(a.Genres))
		for _, g := range a.Genres {
			g = strings.ToLower(strings.TrimSpace(g))
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			counts[g]++
		}
	}

	genres := make([]models.GenreCount, 0, len(counts))
	for g, n := range counts {
		genres = append(genres, models.GenreCount{Genre: g, Count: n})
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Count != genres[j].Count {
			return genres[i].Count > genres[j].Count
		}
		return genres[i].Genre < genres[j].Genre
	})
	return genres
}

// FilterTracks keeps tracks whose name, artists or album contain query, ignoring case.
// An empty query returns tracks unchanged.
func FilterTracks(tracks []models.Track, query string) []models.Track {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tracks
	}

	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if contains(t.Name, query) || contains(t.Album, query) || containsAny(t.Artists, query) {
			out = append(out, t)
		}
	}
	return out
}

// FilterArtists keeps artists whose name or genres contain query, ignoring case.
func FilterArtists(artists []models.Artist, query string) []models.Artist {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return artists
	}

	out := make([]models.Artist, 0, len(artists))
	for _, a := range artists {
		if contains(a.Name, query) || containsAny(a.Genres, query) {
			out = append(out, a)
		}
	}
	return out
}

// FilterPlays keeps plays whose track matches query as in [FilterTracks].
func FilterPlays(plays []models.Play, query string) []models.Play {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return plays
	}

	out := make([]models.Play, 0, len(plays))
	for _, p := range plays {
		t := p.Track
		if contains(t.Name, query) || contains(t.Album, query) || containsAny(t.Artists, query) {
			out = append(out, p)
		}
	}
	return out
}

// FilterPlaylists keeps playlists whose name or description contain query, ignoring case.
func FilterPlaylists(playlists []models.Playlist, query string) []models.Playlist {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return playlists
	}

	out := make([]models.Playlist, 0, len(playlists))
	for _, p := range playlists {
		if contains(p.Name, query) || contains(p.Description, query) {
			out = append(out, p)
		}
	}
	return out
}

func contains(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

func containsAny(values []string, lowerQuery string) bool {
	for _, v := range values {
		if contains(v, lowerQuery) {
			return true
		}
	}
	return false
}
