package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/session"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/desertthunder/statify/internal/tasks"
)

// Tab is one page of the dashboard.
type Tab int

const (
	ArtistsTab Tab = iota
	TracksTab
	GenresTab
	RecentTab
	PlaylistsTab
	SearchTab
	MineTab
	tabCount
)

func (t Tab) String() string {
	switch t {
	case ArtistsTab:
		return "Artists"
	case TracksTab:
		return "Tracks"
	case GenresTab:
		return "Genres"
	case RecentTab:
		return "Recent"
	case PlaylistsTab:
		return "Playlists"
	case SearchTab:
		return "Search"
	case MineTab:
		return "Mine"
	default:
		return ""
	}
}

// Resetter notifies when the signed-in session ends. [session.Session] implements it.
type Resetter interface {
	OnReset(fn func())
}

// Options are the TUI's collaborators. Engine is required; Search and Mine disable their
// tabs' actions when nil. Session, when set, clears every loaded view once sign-in ends.
type Options struct {
	Engine    *tasks.StatsEngine
	Search    tasks.TrackSearcher
	Session   Resetter
	Mine      *session.MyPlaylist
	TimeRange models.TimeRange
	Limit     int
	Debounce  time.Duration
}

// loading tracks one in-flight [tasks.StatsEngine.Load].
type loading struct {
	progress chan tasks.ProgressUpdate
	done     chan *tasks.Dashboard
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	opts      Options
	tab       Tab
	width     int
	height    int
	lists     [tabCount]list.Model
	dashboard *tasks.Dashboard
	load      *loading
	progress  tasks.ProgressUpdate
	searcher  *tasks.Searcher
	results   chan tasks.SearchResult
	resets    chan struct{}
	input     textinput.Model
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Search tracks"
	input.CharLimit = 100

	m := &Model{
		ctx:     ctx,
		opts:    opts,
		tab:     ArtistsTab,
		results: make(chan tasks.SearchResult, 16),
		resets:  make(chan struct{}, 1),
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
	}

	for t := Tab(0); t < tabCount; t++ {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.Title = t.String()
		l.SetShowHelp(false)
		m.lists[t] = l
	}

	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
		m.opts.Debounce = opts.Debounce
	}
	if opts.Search != nil {
		m.searcher = tasks.NewSearcher(opts.Search, opts.Debounce, opts.Limit, m.deliver)
	}
	if opts.Session != nil {
		opts.Session.OnReset(m.signalReset)
	}
	return m
}

// Init starts loading the dashboard and the curated list.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startLoad(), m.waitForSearch(), m.waitForReset(), m.refreshMine())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for t := range m.lists {
			m.lists[t].SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgDashboardLoaded:
		m.load = nil
		m.setDashboard(msg.data.(*tasks.Dashboard))
		return m, nil

	case MsgSearchResult:
		result := msg.data.(tasks.SearchResult)
		if m.searcher != nil && result.Generation == m.searcher.Current() {
			m.setSearchResult(result)
		}
		return m, m.waitForSearch()

	case MsgPlaylistChanged:
		change := msg.data.(playlistChange)
		if change.err != nil {
			m.status = styles.err.Render(change.err.Error())
		} else {
			m.status = styles.ok.Render(change.status)
		}
		return m, m.refreshMine()

	case MsgSessionReset:
		m.clearViews()
		m.err = fmt.Errorf("%w: run `statify login` to sign in again", shared.ErrTokenExpired)
		return m, m.waitForReset()
	}
	return m, nil
}

// View renders the tab bar, the active tab and contextual help.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch {
	case m.load != nil && m.tab != SearchTab && m.tab != MineTab:
		b.WriteString(m.renderLoading())
	case m.tab == SearchTab:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(m.lists[SearchTab].View())
	default:
		b.WriteString(m.lists[m.tab].View())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

// Tab returns the active tab.
func (m *Model) Tab() Tab {
	return m.tab
}

// Dashboard returns the last loaded dashboard, or nil while the first load runs.
func (m *Model) Dashboard() *tasks.Dashboard {
	return m.dashboard
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	if m.input.Focused() {
		return m.handleSearchInput(msg)
	}

	if m.lists[m.tab].FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.next):
		m.switchTab((m.tab + 1) % tabCount)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.switchTab((m.tab + tabCount - 1) % tabCount)
		return m, nil
	case key.Matches(msg, m.keys.search):
		if m.searcher != nil {
			m.switchTab(SearchTab)
			return m, m.input.Focus()
		}
	case key.Matches(msg, m.keys.reload):
		if m.load == nil {
			return m, m.startLoad()
		}
		return m, nil
	case key.Matches(msg, m.keys.add):
		if track, ok := selectedTrack(m.lists[m.tab].SelectedItem()); ok {
			return m, m.addToMine(track)
		}
	case key.Matches(msg, m.keys.remove):
		if m.tab == MineTab {
			if track, ok := selectedTrack(m.lists[MineTab].SelectedItem()); ok {
				return m, m.removeFromMine(track)
			}
		}
	}

	return m.updateList(msg)
}

func (m *Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "tab":
		m.input.Blur()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before && m.searcher != nil {
		m.searcher.Input(after)
	}
	return m, cmd
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
	return m, cmd
}

func (m *Model) switchTab(t Tab) {
	m.tab = t
	m.status = ""
}

func (m *Model) quit() tea.Cmd {
	if m.searcher != nil {
		m.searcher.Stop()
	}
	return tea.Quit
}

func (m *Model) startLoad() tea.Cmd {
	if m.opts.Engine == nil {
		m.err = fmt.Errorf("%w: stats engine not initialized", shared.ErrServiceUnavailable)
		return nil
	}

	l := &loading{
		progress: make(chan tasks.ProgressUpdate, 16),
		done:     make(chan *tasks.Dashboard, 1),
	}
	m.load = l
	m.progress = tasks.ProgressUpdate{Message: "Loading your stats..."}

	go func() {
		l.done <- m.opts.Engine.Load(m.ctx, tasks.LoadOptions{
			TimeRange: m.opts.TimeRange,
			Limit:     m.opts.Limit,
			Progress:  l.progress,
		})
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	l := m.load
	if l == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-l.progress:
			return progressUpdateMsg(update)
		case d := <-l.done:
			return dashboardLoadedMsg(d)
		}
	}
}

func (m *Model) setDashboard(d *tasks.Dashboard) {
	if d.Expired() {
		m.clearViews()
		m.err = fmt.Errorf("%w: run `statify login` to sign in again", shared.ErrTokenExpired)
		return
	}
	m.dashboard = d

	artists := make([]list.Item, len(d.TopArtists.Value))
	for i, a := range d.TopArtists.Value {
		artists[i] = artistItem{rank: i + 1, artist: a}
	}
	m.lists[ArtistsTab].SetItems(artists)

	m.lists[TracksTab].SetItems(trackItems(d.TopTracks.Value))

	genres := make([]list.Item, len(d.Genres))
	for i, g := range d.Genres {
		genres[i] = genreItem{genre: g}
	}
	m.lists[GenresTab].SetItems(genres)

	plays := make([]list.Item, len(d.Recent.Value))
	for i, p := range d.Recent.Value {
		plays[i] = playItem{play: p}
	}
	m.lists[RecentTab].SetItems(plays)

	playlists := make([]list.Item, len(d.Playlists.Value))
	for i, p := range d.Playlists.Value {
		playlists[i] = playlistItem{playlist: p}
	}
	m.lists[PlaylistsTab].SetItems(playlists)

	if d.Profile.OK() && d.Profile.Value != nil {
		m.lists[ArtistsTab].Title = fmt.Sprintf("Top Artists for %s", d.Profile.Value.DisplayName)
	}

	m.status = ""
	if len(d.Unavailable) > 0 {
		m.status = styles.warn.Render("Unavailable: " + strings.Join(d.Unavailable, ", "))
	}
}

func (m *Model) setSearchResult(result tasks.SearchResult) {
	if result.Err != nil {
		if errors.Is(result.Err, shared.ErrTokenExpired) {
			m.err = fmt.Errorf("%w: run `statify login` to sign in again", shared.ErrTokenExpired)
			return
		}
		m.status = styles.warn.Render("Search unavailable")
		m.lists[SearchTab].SetItems(nil)
		return
	}
	m.lists[SearchTab].SetItems(trackItems(result.Tracks))
	if result.Query != "" {
		m.lists[SearchTab].Title = fmt.Sprintf("Results for %q", result.Query)
	} else {
		m.lists[SearchTab].Title = SearchTab.String()
	}
}

// clearViews drops everything loaded with the old token. My playlist is local and stays.
func (m *Model) clearViews() {
	m.dashboard = nil
	for t := Tab(0); t < tabCount; t++ {
		if t == MineTab {
			continue
		}
		m.lists[t].SetItems(nil)
		m.lists[t].Title = t.String()
	}
	if m.searcher != nil {
		m.searcher.Input("")
	}
	m.input.SetValue("")
	m.status = ""
}

// signalReset runs on whichever goroutine ended the session.
func (m *Model) signalReset() {
	select {
	case m.resets <- struct{}{}:
	default:
	}
}

func (m *Model) waitForReset() tea.Cmd {
	if m.opts.Session == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-m.resets:
			return sessionResetMsg()
		case <-m.ctx.Done():
			return nil
		}
	}
}

// deliver runs on the searcher's goroutine.
func (m *Model) deliver(result tasks.SearchResult) {
	select {
	case m.results <- result:
	case <-m.ctx.Done():
	}
}

func (m *Model) waitForSearch() tea.Cmd {
	if m.searcher == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case result := <-m.results:
			return searchResultMsg(result)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) refreshMine() tea.Cmd {
	if m.opts.Mine == nil {
		return nil
	}
	tracks, err := m.opts.Mine.List()
	if err != nil {
		m.status = styles.err.Render(err.Error())
		return nil
	}
	m.lists[MineTab].SetItems(trackItems(tracks))
	m.lists[MineTab].Title = fmt.Sprintf("My Playlist (%d)", len(tracks))
	return nil
}

func (m *Model) addToMine(track models.Track) tea.Cmd {
	mine := m.opts.Mine
	if mine == nil {
		return nil
	}
	return func() tea.Msg {
		added, err := mine.Add(track)
		if err != nil {
			return playlistChangedMsg("", err)
		}
		if !added {
			return playlistChangedMsg(fmt.Sprintf("%q is already in your playlist", track.Name), nil)
		}
		return playlistChangedMsg(fmt.Sprintf("✓ Added %q", track.Name), nil)
	}
}

func (m *Model) removeFromMine(track models.Track) tea.Cmd {
	mine := m.opts.Mine
	if mine == nil {
		return nil
	}
	return func() tea.Msg {
		if _, err := mine.Remove(track.ID); err != nil {
			return playlistChangedMsg("", err)
		}
		return playlistChangedMsg(fmt.Sprintf("✓ Removed %q", track.Name), nil)
	}
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		if t == m.tab {
			tabs = append(tabs, styles.activeTab.Render(t.String()))
		} else {
			tabs = append(tabs, styles.tab.Render(t.String()))
		}
	}
	return strings.Join(tabs, " ")
}

func (m *Model) renderLoading() string {
	return fmt.Sprintf("%s\n%s", styles.title.Render("Loading"), m.progress.Message)
}

func (m *Model) helpKeys() []key.Binding {
	switch m.tab {
	case TracksTab, RecentTab:
		return []key.Binding{m.keys.next, m.keys.add, m.keys.reload, m.keys.quit}
	case SearchTab:
		if m.input.Focused() {
			return []key.Binding{m.keys.back}
		}
		return []key.Binding{m.keys.search, m.keys.add, m.keys.next, m.keys.quit}
	case MineTab:
		return []key.Binding{m.keys.next, m.keys.remove, m.keys.quit}
	default:
		return []key.Binding{m.keys.next, m.keys.prev, m.keys.reload, m.keys.quit}
	}
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
