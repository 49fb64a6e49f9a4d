package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
)

// MyPlaylist is the user's curated track list, kept in insertion order.
type MyPlaylist struct {
	mu    sync.Mutex
	store Store
}

func NewMyPlaylist(store Store) *MyPlaylist {
	return &MyPlaylist{store: store}
}

// List returns the tracks in the order they were added.
func (p *MyPlaylist) List() ([]models.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

// Add appends track unless a track with the same ID is already present.
func (p *MyPlaylist) Add(track models.Track) (bool, error) {
	if strings.TrimSpace(track.ID) == "" {
		return false, fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tracks, err := p.load()
	if err != nil {
		return false, err
	}
	for _, t := range tracks {
		if t.ID == track.ID {
			return false, nil
		}
	}
	return true, p.save(append(tracks, track))
}

// Remove deletes the track with id and reports whether it was present.
func (p *MyPlaylist) Remove(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracks, err := p.load()
	if err != nil {
		return false, err
	}

	kept := tracks[:0]
	for _, t := range tracks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tracks) {
		return false, nil
	}
	return true, p.save(kept)
}

// Contains reports whether a track with id is in the list.
func (p *MyPlaylist) Contains(id string) bool {
	tracks, err := p.List()
	if err != nil {
		return false
	}
	for _, t := range tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (p *MyPlaylist) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Clear(PlaylistKey)
}

func (p *MyPlaylist) load() ([]models.Track, error) {
	raw, ok, err := p.store.Get(PlaylistKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	if !ok || raw == "" {
		return []models.Track{}, nil
	}

	var tracks []models.Track
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}
	return tracks, nil
}

func (p *MyPlaylist) save(tracks []models.Track) error {
	data, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to encode playlist: %w", err)
	}
	if err := p.store.Set(PlaylistKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist playlist: %w", err)
	}
	return nil
}
