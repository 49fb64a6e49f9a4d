package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
)

var (
	_ list.Item = artistItem{}
	_ list.Item = trackItem{}
	_ list.Item = genreItem{}
	_ list.Item = playItem{}
	_ list.Item = playlistItem{}
)

// artistItem wraps [models.Artist] to implement [list.Item].
type artistItem struct {
	rank   int
	artist models.Artist
}

func (i artistItem) FilterValue() string { return i.artist.Name + " " + strings.Join(i.artist.Genres, " ") }
func (i artistItem) Title() string       { return fmt.Sprintf("%d. %s", i.rank, i.artist.Name) }
func (i artistItem) Description() string {
	desc := fmt.Sprintf("popularity %d", i.artist.Popularity)
	if len(i.artist.Genres) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.artist.Genres, ", "))
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string {
	return i.track.Name + " " + strings.Join(i.track.Artists, " ") + " " + i.track.Album
}
func (i trackItem) Title() string { return i.track.Name }
func (i trackItem) Description() string {
	desc := strings.Join(i.track.Artists, ", ")
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.track.DurationMS))
}

// genreItem wraps [models.GenreCount] to implement [list.Item].
type genreItem struct {
	genre models.GenreCount
}

func (i genreItem) FilterValue() string { return i.genre.Genre }
func (i genreItem) Title() string       { return i.genre.Genre }
func (i genreItem) Description() string {
	if i.genre.Count == 1 {
		return "1 artist"
	}
	return fmt.Sprintf("%d artists", i.genre.Count)
}

// playItem wraps [models.Play] to implement [list.Item].
type playItem struct {
	play models.Play
}

func (i playItem) FilterValue() string { return trackItem{i.play.Track}.FilterValue() }
func (i playItem) Title() string       { return i.play.Track.Name }
func (i playItem) Description() string {
	return fmt.Sprintf("%s • %s", strings.Join(i.play.Track.Artists, ", "), i.play.PlayedAt.Local().Format("Jan 2 15:04"))
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// selectedTrack returns the track behind a list item, if it has one.
func selectedTrack(item list.Item) (models.Track, bool) {
	switch it := item.(type) {
	case trackItem:
		return it.track, true
	case playItem:
		return it.play.Track, true
	}
	return models.Track{}, false
}
