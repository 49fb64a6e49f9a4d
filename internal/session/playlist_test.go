package session

import (
	"errors"
	"testing"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
)

func TestMyPlaylist(t *testing.T) {
	track := func(id, name string) models.Track {
		return models.Track{ID: id, Name: name, Artists: []string{"Artist"}}
	}

	t.Run("Empty", func(t *testing.T) {
		tracks, err := NewMyPlaylist(NewMemoryStore()).List()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 0 {
			t.Errorf("expected empty list, got %d", len(tracks))
		}
	})

	t.Run("Add Is Idempotent", func(t *testing.T) {
		p := NewMyPlaylist(NewMemoryStore())

		added, err := p.Add(track("1", "One"))
		if err != nil || !added {
			t.Fatalf("expected first add to succeed, got %v %v", added, err)
		}
		added, err = p.Add(track("1", "One again"))
		if err != nil || added {
			t.Errorf("expected duplicate to be ignored, got %v %v", added, err)
		}

		tracks, _ := p.List()
		if len(tracks) != 1 || tracks[0].Name != "One" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("Add Requires ID", func(t *testing.T) {
		_, err := NewMyPlaylist(NewMemoryStore()).Add(models.Track{Name: "No ID"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Keeps Insertion Order", func(t *testing.T) {
		p := NewMyPlaylist(NewMemoryStore())
		for _, id := range []string{"b", "a", "c"} {
			p.Add(track(id, id))
		}
		tracks, _ := p.List()
		if tracks[0].ID != "b" || tracks[1].ID != "a" || tracks[2].ID != "c" {
			t.Errorf("unexpected order %+v", tracks)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		p := NewMyPlaylist(NewMemoryStore())
		p.Add(track("1", "One"))
		p.Add(track("2", "Two"))

		removed, err := p.Remove("1")
		if err != nil || !removed {
			t.Fatalf("expected removal, got %v %v", removed, err)
		}
		removed, _ = p.Remove("missing")
		if removed {
			t.Error("expected missing id to report false")
		}
		if p.Contains("1") || !p.Contains("2") {
			t.Error("expected only track 2 to remain")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewMemoryStore()
		p := NewMyPlaylist(store)
		p.Add(track("1", "One"))

		if err := p.Clear(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok, _ := store.Get(PlaylistKey); ok {
			t.Error("expected key to be removed")
		}
	})

	t.Run("Persists Across Instances", func(t *testing.T) {
		store := NewMemoryStore()
		NewMyPlaylist(store).Add(track("1", "One"))

		if !NewMyPlaylist(store).Contains("1") {
			t.Error("expected track to be read back from the store")
		}
	})

	t.Run("Corrupt Payload", func(t *testing.T) {
		store := NewMemoryStore()
		store.Set(PlaylistKey, "{not json")
		if _, err := NewMyPlaylist(store).List(); err == nil {
			t.Error("expected decode error")
		}
	})
}
