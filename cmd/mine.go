package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/statify/internal/formatter"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/urfave/cli/v3"
)

// trackResolver looks a track up by ID. [services.SpotifyService] implements it.
type trackResolver interface {
	Track(ctx context.Context, id string) (*models.Track, error)
}

// MineList prints the curated list.
func (r *Runner) MineList(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.mine.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		return r.writePlain("My playlist is empty. Add tracks with 'statify mine add <id>'.\n")
	}
	r.writePlain("My playlist (%d tracks):\n\n", len(tracks))
	r.writeTracks(tracks)
	return nil
}

// MineAdd appends a track. The ID is resolved against top tracks and recent plays first,
// then fetched from the catalog.
func (r *Runner) MineAdd(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	track, err := r.resolveTrack(ctx, id)
	if err != nil {
		return err
	}

	added, err := r.mine.Add(*track)
	if err != nil {
		return err
	}
	if !added {
		return r.writePlain("%s is already in my playlist\n", track.Name)
	}
	return r.writePlain("✓ Added %s - %s\n", track.PrimaryArtist(), track.Name)
}

// MineRemove drops a track by ID.
func (r *Runner) MineRemove(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}

	removed, err := r.mine.Remove(id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: track %s is not in my playlist", shared.ErrNotFound, id)
	}
	return r.writePlain("✓ Removed %s\n", id)
}

// MineClear empties the list.
func (r *Runner) MineClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.mine.Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ My playlist cleared\n")
}

// MineExport writes the list to a file.
func (r *Runner) MineExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	tracks, err := r.mine.List()
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: my playlist is empty", shared.ErrInvalidInput)
	}

	path, err := formatter.WriteExport(format, cmd.String("title"), tracks, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("exported playlist", "path", path, "format", format, "tracks", len(tracks))
	return r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), path)
}

func (r *Runner) resolveTrack(ctx context.Context, id string) (*models.Track, error) {
	timeRange, _ := models.ParseTimeRange(r.config.Client.TimeRange)

	if tracks, err := r.stats.TopTracks(ctx, timeRange, r.config.Client.Limit); err == nil {
		for _, t := range tracks {
			if t.ID == id {
				return &t, nil
			}
		}
	} else if err := r.expiredError(err); err != nil {
		return nil, err
	}

	if plays, err := r.stats.RecentlyPlayed(ctx, r.config.Client.Limit); err == nil {
		for _, p := range plays {
			if p.Track.ID == id {
				return &p.Track, nil
			}
		}
	} else if err := r.expiredError(err); err != nil {
		return nil, err
	}

	resolver, ok := r.stats.(trackResolver)
	if !ok {
		return nil, fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}
	track, err := resolver.Track(ctx, id)
	if err != nil {
		return nil, r.fetchError("track "+id, err)
	}
	return track, nil
}

// expiredError returns the sign-in hint for an expired token and nil for anything else.
func (r *Runner) expiredError(err error) error {
	if errors.Is(err, shared.ErrTokenExpired) {
		return r.fetchError("", err)
	}
	return nil
}
