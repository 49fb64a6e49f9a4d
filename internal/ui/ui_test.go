package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/session"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/desertthunder/statify/internal/tasks"
	tu "github.com/desertthunder/statify/internal/testing"
)

func stubStats() *tu.StubStats {
	return &tu.StubStats{
		ProfileValue: &models.Profile{ID: "u1", DisplayName: "Listener"},
		ArtistsValue: []models.Artist{
			{ID: "a1", Name: "Alpha", Genres: []string{"indie", "pop"}},
			{ID: "a2", Name: "Beta", Genres: []string{"indie"}},
		},
		TracksValue: []models.Track{
			{ID: "t1", Name: "First Song", Artists: []string{"Alpha"}},
			{ID: "t2", Name: "Second Song", Artists: []string{"Beta"}},
		},
		RecentValue: []models.Play{
			{Track: models.Track{ID: "t3", Name: "Recent"}, PlayedAt: time.Now()},
		},
		PlaylistsValue: []models.Playlist{{ID: "p1", Name: "Mix"}},
	}
}

func newTestModel(t *testing.T, src *tu.StubStats) (*Model, *session.MyPlaylist) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mine := session.NewMyPlaylist(session.NewMemoryStore())
	m := NewModel(ctx, Options{
		Engine:   tasks.NewStatsEngine(src, shared.NewLogger(&strings.Builder{})),
		Search:   src,
		Mine:     mine,
		Limit:    10,
		Debounce: 10 * time.Millisecond,
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, mine
}

func loadDashboard(t *testing.T, m *Model, src *tu.StubStats) {
	t.Helper()
	engine := tasks.NewStatsEngine(src, shared.NewLogger(&strings.Builder{}))
	m.Update(dashboardLoadedMsg(engine.Load(context.Background(), tasks.LoadOptions{})))
}

func TestModel(t *testing.T) {
	t.Run("Dashboard Populates Tabs", func(t *testing.T) {
		src := stubStats()
		m, _ := newTestModel(t, src)
		loadDashboard(t, m, src)

		if m.Dashboard() == nil {
			t.Fatal("expected dashboard to be set")
		}
		want := map[Tab]int{ArtistsTab: 2, TracksTab: 2, GenresTab: 2, RecentTab: 1, PlaylistsTab: 1}
		for tab, n := range want {
			if got := len(m.lists[tab].Items()); got != n {
				t.Errorf("%s: expected %d items, got %d", tab, n, got)
			}
		}
		if !strings.Contains(m.lists[ArtistsTab].Title, "Listener") {
			t.Errorf("expected artists title to name the user, got %q", m.lists[ArtistsTab].Title)
		}
	})

	t.Run("Unavailable Resource Is Reported", func(t *testing.T) {
		src := stubStats()
		src.Fail = map[string]bool{"recent": true}
		m, _ := newTestModel(t, src)
		loadDashboard(t, m, src)

		if len(m.lists[RecentTab].Items()) != 0 {
			t.Error("expected empty recent tab")
		}
		if len(m.lists[TracksTab].Items()) != 2 {
			t.Error("expected tracks to load despite recent failing")
		}
		if !strings.Contains(m.View(), "recently played") {
			t.Errorf("expected unavailable notice in view")
		}
	})

	t.Run("Expired Token Shows Error", func(t *testing.T) {
		src := stubStats()
		src.Fail = map[string]bool{"profile": true}
		src.Err = shared.ErrTokenExpired
		m, _ := newTestModel(t, src)
		loadDashboard(t, m, src)

		if !errors.Is(m.err, shared.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", m.err)
		}
		if !strings.Contains(m.View(), "statify login") {
			t.Error("expected view to suggest logging in again")
		}
	})

	t.Run("Tab Navigation", func(t *testing.T) {
		m, _ := newTestModel(t, stubStats())

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.Tab() != TracksTab {
			t.Errorf("expected TracksTab, got %s", m.Tab())
		}
		m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
		m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
		if m.Tab() != MineTab {
			t.Errorf("expected wrap around to MineTab, got %s", m.Tab())
		}
	})

	t.Run("Stale Search Result Is Dropped", func(t *testing.T) {
		m, _ := newTestModel(t, stubStats())
		m.searcher.Input("first")
		m.searcher.Input("second")
		current := m.searcher.Current()

		m.Update(searchResultMsg(tasks.SearchResult{
			Query:      "first",
			Tracks:     []models.Track{{ID: "stale"}},
			Generation: current - 1,
		}))
		if n := len(m.lists[SearchTab].Items()); n != 0 {
			t.Fatalf("expected stale result to be dropped, got %d items", n)
		}

		m.Update(searchResultMsg(tasks.SearchResult{
			Query:      "second",
			Tracks:     []models.Track{{ID: "fresh"}},
			Generation: current,
		}))
		if n := len(m.lists[SearchTab].Items()); n != 1 {
			t.Fatalf("expected current result to be shown, got %d items", n)
		}
		m.searcher.Stop()
	})

	t.Run("Add Selected Track To Mine", func(t *testing.T) {
		src := stubStats()
		m, mine := newTestModel(t, src)
		loadDashboard(t, m, src)

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
		if cmd == nil {
			t.Fatal("expected an add command")
		}
		m.Update(cmd())

		tracks, err := mine.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "t1" {
			t.Fatalf("expected t1 in playlist, got %+v", tracks)
		}
		if n := len(m.lists[MineTab].Items()); n != 1 {
			t.Errorf("expected mine tab to refresh, got %d items", n)
		}

		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
		m.Update(cmd())
		if !strings.Contains(m.status, "already") {
			t.Errorf("expected duplicate notice, got %q", m.status)
		}
	})

	t.Run("Remove From Mine", func(t *testing.T) {
		m, mine := newTestModel(t, stubStats())
		if _, err := mine.Add(models.Track{ID: "t9", Name: "Keep?"}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		m.refreshMine()
		m.switchTab(MineTab)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
		if cmd == nil {
			t.Fatal("expected a remove command")
		}
		m.Update(cmd())

		if mine.Contains("t9") {
			t.Error("expected track to be removed")
		}
	})
	t.Run("Session End Clears Loaded Views", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)

		src := stubStats()
		store := session.NewMemoryStore()
		sess := session.New(store, nil, shared.NewLogger(&strings.Builder{}))
		if err := sess.SetToken("tok"); err != nil {
			t.Fatalf("SetToken failed: %v", err)
		}
		mine := session.NewMyPlaylist(store)
		if _, err := mine.Add(models.Track{ID: "t9", Name: "Keeper"}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		m := NewModel(ctx, Options{
			Engine:  tasks.NewStatsEngine(src, shared.NewLogger(&strings.Builder{})),
			Search:  src,
			Mine:    mine,
			Session: sess,
		})
		m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
		m.refreshMine()
		loadDashboard(t, m, src)

		if !sess.Expire() {
			t.Fatal("expected Expire to end the session")
		}
		m.Update(m.waitForReset()())

		if m.Dashboard() != nil {
			t.Error("expected dashboard to be cleared")
		}
		for _, tab := range []Tab{ArtistsTab, TracksTab, GenresTab, RecentTab, PlaylistsTab} {
			if n := len(m.lists[tab].Items()); n != 0 {
				t.Errorf("%s: expected no items after sign-out, got %d", tab, n)
			}
		}
		if n := len(m.lists[MineTab].Items()); n != 1 {
			t.Errorf("expected my playlist to survive sign-out, got %d items", n)
		}
		if !errors.Is(m.err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", m.err)
		}
	})
}
