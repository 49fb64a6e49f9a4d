// Package services holds statify's outbound HTTP clients.
//
// # Resource Fetcher
//
// [SpotifyService] performs authorized GETs against the Spotify Web API. It reads the bearer
// token from a [Credentials] value on every call, so a logout or expiry takes effect on the
// next request. Calls made without a token fail with [shared.ErrNotAuthenticated] before any
// network traffic. A 401 from the API calls [Credentials.Expire] and returns
// [shared.ErrTokenExpired]; the session decides whether the user is notified.
//
// # Token Exchange
//
// [TokenExchanger] is the server side of the authorization-code flow. It is the only
// component that holds the client secret, and it never includes it in returned values or
// errors. Provider rejections are surfaced as [*ProviderError] with the raw body so the
// HTTP layer can relay them unchanged.
//
// # Backend Client
//
// [BackendClient] is what the CLI and TUI use to reach the statify backend: the exchange
// relay, signup submission and the admin signup endpoints. Backend statuses map onto the
// sentinel errors in the shared package:
//   - 400 : [shared.ErrInvalidInput]
//   - 401 : [shared.ErrNotAuthenticated]
//   - 403 : [shared.ErrForbidden]
//   - 404 : [shared.ErrNotFound]
package services
