package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/desertthunder/statify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TopArtists lists the user's top artists.
func (r *Runner) TopArtists(ctx context.Context, cmd *cli.Command) error {
	timeRange, err := r.timeRange(cmd)
	if err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	artists, err := r.stats.TopArtists(ctx, timeRange, cmd.Int("limit"))
	if err != nil {
		return r.fetchError("top artists", err)
	}
	artists = tasks.FilterArtists(artists, cmd.String("filter"))

	if cmd.Bool("json") {
		return r.writeJSON(artists, cmd.Bool("pretty"))
	}

	r.writePlain("Top %d artists (%s):\n\n", len(artists), rangeLabel(timeRange))
	for i, a := range artists {
		r.writePlain("%2d. %s\n", i+1, a.Name)
		if len(a.Genres) > 0 {
			r.writePlain("    Genres: %s\n", strings.Join(a.Genres, ", "))
		}
	}
	return nil
}

// TopTracks lists the user's top tracks.
func (r *Runner) TopTracks(ctx context.Context, cmd *cli.Command) error {
	timeRange, err := r.timeRange(cmd)
	if err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	tracks, err := r.stats.TopTracks(ctx, timeRange, cmd.Int("limit"))
	if err != nil {
		return r.fetchError("top tracks", err)
	}
	tracks = tasks.FilterTracks(tracks, cmd.String("filter"))

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlain("Top %d tracks (%s):\n\n", len(tracks), rangeLabel(timeRange))
	r.writeTracks(tracks)
	return nil
}

// Genres aggregates genres over the user's top artists.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	timeRange, err := r.timeRange(cmd)
	if err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	artists, err := r.stats.TopArtists(ctx, timeRange, cmd.Int("limit"))
	if err != nil {
		return r.fetchError("top artists", err)
	}
	genres := tasks.Genres(artists)
	if q := strings.ToLower(strings.TrimSpace(cmd.String("filter"))); q != "" {
		kept := genres[:0]
		for _, g := range genres {
			if strings.Contains(g.Genre, q) {
				kept = append(kept, g)
			}
		}
		genres = kept
	}

	if cmd.Bool("json") {
		return r.writeJSON(genres, cmd.Bool("pretty"))
	}

	r.writePlain("Genres across your top %d artists (%s):\n\n", len(artists), rangeLabel(timeRange))
	for i, g := range genres {
		r.writePlain("%2d. %s (%d)\n", i+1, g.Genre, g.Count)
	}
	return nil
}

// Recent lists recently played tracks.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	plays, err := r.stats.RecentlyPlayed(ctx, cmd.Int("limit"))
	if err != nil {
		return r.fetchError("recently played", err)
	}
	plays = tasks.FilterPlays(plays, cmd.String("filter"))

	if cmd.Bool("json") {
		return r.writeJSON(plays, cmd.Bool("pretty"))
	}

	r.writePlain("Last %d plays:\n\n", len(plays))
	for i, p := range plays {
		r.writePlain("%2d. %s - %s\n", i+1, strings.Join(p.Track.Artists, ", "), p.Track.Name)
		r.writePlain("    %s • ID: %s\n", p.PlayedAt.Local().Format("Mon Jan 2 15:04"), p.Track.ID)
	}
	return nil
}

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireLogin(); err != nil {
		return err
	}

	playlists, err := r.stats.Playlists(ctx, cmd.Int("limit"))
	if err != nil {
		return r.fetchError("playlists", err)
	}
	playlists = tasks.FilterPlaylists(playlists, cmd.String("filter"))

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if p.Public {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Private\n")
		}
		r.writePlain("\n")
	}
	return nil
}

// Search looks up tracks in the catalog.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	tracks, err := r.stats.SearchTracks(ctx, query, cmd.Int("limit"))
	if err != nil {
		return r.fetchError("search", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlain("%d results for %q:\n\n", len(tracks), query)
	r.writeTracks(tracks)
	return nil
}

// Dashboard loads every resource concurrently and prints a summary. Resources that fail
// are listed as unavailable instead of failing the command.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	timeRange, err := r.timeRange(cmd)
	if err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase.String())
		}
	}()

	d := r.engine.Load(ctx, tasks.LoadOptions{
		TimeRange: timeRange,
		Limit:     cmd.Int("limit"),
		Progress:  progress,
	})
	close(progress)
	<-done

	if d.Expired() {
		return fmt.Errorf("%w: signed out, run `statify login`", shared.ErrTokenExpired)
	}

	filter := cmd.String("filter")
	d.TopArtists.Value = tasks.FilterArtists(d.TopArtists.Value, filter)
	d.TopTracks.Value = tasks.FilterTracks(d.TopTracks.Value, filter)
	d.Recent.Value = tasks.FilterPlays(d.Recent.Value, filter)
	d.Playlists.Value = tasks.FilterPlaylists(d.Playlists.Value, filter)

	if cmd.Bool("json") {
		return r.writeJSON(dashboardJSON(d), cmd.Bool("pretty"))
	}

	title := "Your listening stats"
	if d.Profile.OK() && d.Profile.Value != nil && d.Profile.Value.DisplayName != "" {
		title = fmt.Sprintf("%s's listening stats", d.Profile.Value.DisplayName)
	}
	r.writePlainHeader(fmt.Sprintf("%s (%s)", title, rangeLabel(d.TimeRange)))

	r.writePlainln("Top artists")
	if !d.TopArtists.OK() {
		r.writePlain("  unavailable\n")
	}
	for i, a := range d.TopArtists.Value {
		r.writePlain("%2d. %s\n", i+1, a.Name)
	}

	r.writePlainln("Top tracks")
	if !d.TopTracks.OK() {
		r.writePlain("  unavailable\n")
	}
	for i, t := range d.TopTracks.Value {
		r.writePlain("%2d. %s - %s\n", i+1, t.PrimaryArtist(), t.Name)
	}

	r.writePlainln("Top genres")
	for i, g := range d.Genres {
		if i == 5 {
			break
		}
		r.writePlain("%2d. %s (%d)\n", i+1, g.Genre, g.Count)
	}

	r.writePlainln("Recently played")
	if !d.Recent.OK() {
		r.writePlain("  unavailable\n")
	}
	for i, p := range d.Recent.Value {
		r.writePlain("%2d. %s - %s\n", i+1, p.Track.PrimaryArtist(), p.Track.Name)
	}

	r.writePlainln("Playlists")
	if !d.Playlists.OK() {
		r.writePlain("  unavailable\n")
	}
	for i, p := range d.Playlists.Value {
		r.writePlain("%2d. %s (%d tracks)\n", i+1, p.Name, p.TrackCount)
	}

	if len(d.Unavailable) > 0 {
		r.writePlainln("⚠ Unavailable: %s", strings.Join(d.Unavailable, ", "))
	}
	return nil
}

func (r *Runner) writeTracks(tracks []models.Track) {
	for i, t := range tracks {
		r.writePlain("%2d. %s - %s [%s]\n", i+1, strings.Join(t.Artists, ", "), t.Name, shared.FormatDuration(t.DurationMS))
		r.writePlain("    ID: %s\n", t.ID)
	}
}

func (r *Runner) timeRange(cmd *cli.Command) (models.TimeRange, error) {
	tr, ok := models.ParseTimeRange(cmd.String("range"))
	if !ok {
		return "", fmt.Errorf("%w: --range must be short, medium or long", shared.ErrInvalidArgument)
	}
	return tr, nil
}

// fetchError explains an expired session; the fetcher has already signed out by then.
func (r *Runner) fetchError(what string, err error) error {
	if errors.Is(err, shared.ErrTokenExpired) {
		return fmt.Errorf("%w: signed out, run `statify login`", shared.ErrTokenExpired)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func rangeLabel(tr models.TimeRange) string {
	switch tr {
	case models.ShortTerm:
		return "last 4 weeks"
	case models.LongTerm:
		return "all time"
	default:
		return "last 6 months"
	}
}

type dashboardOutput struct {
	Profile     *models.Profile     `json:"profile"`
	TopArtists  []models.Artist     `json:"top_artists"`
	TopTracks   []models.Track      `json:"top_tracks"`
	Genres      []models.GenreCount `json:"genres"`
	Recent      []models.Play       `json:"recent"`
	Playlists   []models.Playlist   `json:"playlists"`
	TimeRange   models.TimeRange    `json:"time_range"`
	Unavailable []string            `json:"unavailable"`
}

func dashboardJSON(d *tasks.Dashboard) dashboardOutput {
	return dashboardOutput{
		Profile:     d.Profile.Value,
		TopArtists:  d.TopArtists.Value,
		TopTracks:   d.TopTracks.Value,
		Genres:      d.Genres,
		Recent:      d.Recent.Value,
		Playlists:   d.Playlists.Value,
		TimeRange:   d.TimeRange,
		Unavailable: d.Unavailable,
	}
}
