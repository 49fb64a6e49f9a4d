package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/statify/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgDashboardLoaded
	MsgSearchResult
	MsgPlaylistChanged
	MsgSessionReset
)

// playlistChange is the payload of [MsgPlaylistChanged].
type playlistChange struct {
	status string
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// dashboardLoadedMsg is the constructor for [MsgDashboardLoaded]
func dashboardLoadedMsg(d *tasks.Dashboard) Msg {
	return Msg{kind: MsgDashboardLoaded, data: d}
}

// searchResultMsg is the constructor for [MsgSearchResult]
func searchResultMsg(result tasks.SearchResult) Msg {
	return Msg{kind: MsgSearchResult, data: result}
}

// playlistChangedMsg is the constructor for [MsgPlaylistChanged]
func playlistChangedMsg(status string, err error) Msg {
	return Msg{kind: MsgPlaylistChanged, data: playlistChange{status: status, err: err}}
}

// sessionResetMsg is the constructor for [MsgSessionReset]
func sessionResetMsg() Msg {
	return Msg{kind: MsgSessionReset}
}
