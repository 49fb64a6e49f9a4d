// Package server is the statify backend and the CLI's local OAuth callback.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux]. Routes are registered per method and path, and the
// registered [Middleware] wraps the method dispatch, so CORS preflights and 405s still pass
// through request ids, logging and metrics. Middleware is applied in reverse order (last
// added executes first).
//
// # Token Exchange
//
// [ExchangeHandler] is the one privileged step of the login flow. It is stateless: every
// request performs exactly one provider call through a [TokenExchanger] and writes its
// answer back. Responses:
//   - missing code: 400 invalid_request, no provider call
//   - provider success: 200 with the token payload
//   - provider rejection: the provider's status and JSON error body, relayed unchanged
//   - anything else: 502 server_error with no internals
//
// The handler never logs query strings, the issued token or the client secret.
//
// # Signups
//
// POST /signup is open and throttled with a token bucket. Listing and deleting pending
// signups sits behind [AdminGate], which resolves the bearer token to a Spotify profile
// and compares its e-mail to the configured administrator.
//
// # Local Callback
//
// [CallbackHandler] serves /callback on the loopback address during `statify login`. It
// validates the CSRF state and passes the full callback URL to the session, which performs
// the exchange through the backend.
package server
