package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
)

// Exchanger trades an authorization code for a token. [services.BackendClient] calls the
// backend's exchange endpoint.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*models.TokenResponse, error)
}

// Session is the client's single logical login. All methods are safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	store     Store
	exchanger Exchanger
	logger    *log.Logger

	token     string
	loaded    bool
	attempted map[string]struct{}
	resets    []func()
}

func New(store Store, exchanger Exchanger, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{
		store:     store,
		exchanger: exchanger,
		logger:    logger,
		attempted: make(map[string]struct{}),
	}
}

// Bootstrap establishes the session from callbackURL and returns that URL with the
// authorization parameters removed, whatever the outcome.
//
// A stored token wins and no exchange happens. Otherwise the code, if any, is exchanged
// once; a second Bootstrap with the same code fails without calling the exchanger.
func (s *Session) Bootstrap(ctx context.Context, callbackURL string) (string, error) {
	clean, params, err := stripCallback(callbackURL)
	if err != nil {
		return callbackURL, err
	}

	if _, ok := s.Token(); ok {
		return clean, nil
	}

	if reason := params.Get("error"); reason != "" {
		return clean, fmt.Errorf("%w: authorization denied: %s", shared.ErrAuthFailed, reason)
	}

	code := params.Get("code")
	if code == "" {
		return clean, shared.ErrNotAuthenticated
	}

	if !s.markAttempted(code) {
		return clean, fmt.Errorf("%w: authorization code already used", shared.ErrAuthFailed)
	}

	if s.exchanger == nil {
		return clean, fmt.Errorf("%w: no exchanger configured", shared.ErrAuthFailed)
	}

	resp, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		s.log().Warn("token exchange failed", "error", err)
		if errors.Is(err, shared.ErrAuthFailed) {
			return clean, err
		}
		return clean, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if resp == nil || resp.AccessToken == "" {
		return clean, fmt.Errorf("%w: response carried no access token", shared.ErrAuthFailed)
	}

	if err := s.setToken(resp.AccessToken); err != nil {
		return clean, err
	}
	s.log().Info("signed in")
	return clean, nil
}

// Token returns the stored access token, loading it from the store on first use.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		token, ok, err := s.store.Get(TokenKey)
		if err != nil {
			s.logger.Error("failed to read stored token", "error", err)
			return "", false
		}
		if ok {
			s.token = token
		}
		s.loaded = true
	}
	return s.token, s.token != ""
}

func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// SetToken stores token directly, e.g. one pasted by the user.
func (s *Session) SetToken(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}
	return s.setToken(token)
}

// Logout clears the token and resets derived view state.
func (s *Session) Logout() error {
	_, err := s.clear(true)
	return err
}

// Expire handles an authorization-expired signal. Only the call that actually ended an
// active session returns true, so concurrent 401s produce a single notification.
func (s *Session) Expire() bool {
	ended, err := s.clear(false)
	if err != nil {
		s.log().Error("failed to clear expired token", "error", err)
	}
	if ended {
		s.log().Warn("authorization expired, signed out")
	}
	return ended
}

// SetLogger replaces the session logger, e.g. when a full-screen UI takes over stderr.
func (s *Session) SetLogger(logger *log.Logger) {
	if logger == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

func (s *Session) log() *log.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

// OnReset registers fn to run whenever the session ends.
func (s *Session) OnReset(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets = append(s.resets, fn)
}

func (s *Session) setToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	s.token = token
	s.loaded = true
	return nil
}

// clear reports whether a token was present. Reset hooks run outside the lock, always when
// force is set and otherwise only if a token was cleared.
func (s *Session) clear(force bool) (bool, error) {
	s.mu.Lock()
	if !s.loaded {
		if token, ok, err := s.store.Get(TokenKey); err == nil && ok {
			s.token = token
		}
	}
	had := s.token != ""
	s.token = ""
	s.loaded = true
	err := s.store.Clear(TokenKey)
	hooks := append([]func(){}, s.resets...)
	s.mu.Unlock()

	if had || force {
		for _, fn := range hooks {
			fn()
		}
	}
	if err != nil {
		return had, fmt.Errorf("failed to clear token: %w", err)
	}
	return had, nil
}

func (s *Session) markAttempted(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.attempted[code]; seen {
		return false
	}
	s.attempted[code] = struct{}{}
	return true
}

// stripCallback removes code, state and error parameters from raw.
func stripCallback(raw string) (string, url.Values, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid callback url: %v", shared.ErrInvalidInput, err)
	}

	params := u.Query()
	q := u.Query()
	for _, key := range []string{"code", "state", "error"} {
		q.Del(key)
	}
	u.RawQuery = q.Encode()
	return u.String(), params, nil
}
