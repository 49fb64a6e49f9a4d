// Package tasks derives statify's views from the resource fetcher.
//
// # Dashboard Loading
//
// [StatsEngine.Load] fans out the profile, top artists, top tracks, recent plays and
// playlists fetches with an errgroup and joins them before anything is derived. Each fetch
// is wrapped into a [Resource]: a failure becomes an unavailable value and never cancels or
// blocks its siblings. Genres are aggregated from the joined top artists.
//
// Progress is reported on an optional channel with non-blocking sends, one
// [ProgressUpdate] per finished fetch.
//
// # Search
//
// [Debouncer] is a cancellable delayed task. [Searcher] builds on it and adds a generation
// counter: each keystroke supersedes the previous input, cancels its request and discards
// its response if it still arrives.
package tasks
