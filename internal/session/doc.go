// Package session owns the client's authentication state and its persisted key-value data.
//
// A [Session] holds at most one access token, read from and written to a [Store] under
// [TokenKey]. [Session.Bootstrap] is the single entry point after the browser redirect: it
// reuses a stored token, or trades the callback's code for a new one exactly once, and hands
// back the callback URL with the code and state removed.
//
// Two stores are provided. [SQLStore] persists to the sqlite kv_store table and backs the CLI.
// [MemoryStore] keeps values in process and is used for tests and ephemeral runs.
//
// [MyPlaylist] is the user's curated track list, stored as JSON under [PlaylistKey].
package session
