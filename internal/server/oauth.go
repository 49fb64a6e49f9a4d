package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/statify/internal/shared"
)

// CallbackResult is the outcome of the browser redirect to the local callback.
//
// URL is the full callback URL, code included, ready for [session.Session.Bootstrap].
type CallbackResult struct {
	URL string
	err error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the provider redirect during `statify login`.
//
// It checks the CSRF state and hands the callback URL over without exchanging the code:
// the exchange is the backend's job. Only the first callback is processed.
type CallbackHandler struct {
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler expecting state, which should come from
// [shared.GenerateState].
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if r.URL.Query().Get("state") != h.state {
		h.Send(CallbackResult{err: shared.ErrInvalidState})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{URL: callbackURL(r)})

	if reason := r.URL.Query().Get("error"); reason != "" {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, page("Authorization Declined", "Return to the terminal to try again."))
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, page("✓ Authorization Received", "You can close this window and return to the terminal."))
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving callback completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

func callbackURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func page(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #181818; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>
`, title, message)
}
