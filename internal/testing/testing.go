// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/statify/internal/models"
)

// FakeCredentials is an in-memory token holder satisfying [services.Credentials]
type FakeCredentials struct {
	mu      sync.Mutex
	token   string
	expired int
}

func NewFakeCredentials(token string) *FakeCredentials {
	return &FakeCredentials{token: token}
}

func (f *FakeCredentials) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

// Expire clears the token; true only when a token was present.
func (f *FakeCredentials) Expire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == "" {
		return false
	}
	f.token = ""
	f.expired++
	return true
}

// Expirations reports how many times Expire performed a transition.
func (f *FakeCredentials) Expirations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expired
}

// StubStats is a canned [services.StatsSource]. Fail names resources ("profile",
// "artists", "tracks", "recent", "playlists", "search") that return Err instead.
type StubStats struct {
	ProfileValue   *models.Profile
	ArtistsValue   []models.Artist
	TracksValue    []models.Track
	RecentValue    []models.Play
	PlaylistsValue []models.Playlist
	Fail           map[string]bool
	Err            error

	mu       sync.Mutex
	searches []string
}

func (s *StubStats) fail(name string) error {
	if !s.Fail[name] {
		return nil
	}
	if s.Err != nil {
		return s.Err
	}
	return errors.New(name + " failed")
}

func (s *StubStats) Profile(ctx context.Context) (*models.Profile, error) {
	if err := s.fail("profile"); err != nil {
		return nil, err
	}
	return s.ProfileValue, nil
}

func (s *StubStats) TopArtists(ctx context.Context, tr models.TimeRange, limit int) ([]models.Artist, error) {
	if err := s.fail("artists"); err != nil {
		return nil, err
	}
	return s.ArtistsValue, nil
}

func (s *StubStats) TopTracks(ctx context.Context, tr models.TimeRange, limit int) ([]models.Track, error) {
	if err := s.fail("tracks"); err != nil {
		return nil, err
	}
	return s.TracksValue, nil
}

func (s *StubStats) RecentlyPlayed(ctx context.Context, limit int) ([]models.Play, error) {
	if err := s.fail("recent"); err != nil {
		return nil, err
	}
	return s.RecentValue, nil
}

func (s *StubStats) Playlists(ctx context.Context, limit int) ([]models.Playlist, error) {
	if err := s.fail("playlists"); err != nil {
		return nil, err
	}
	return s.PlaylistsValue, nil
}

// SearchTracks returns the stub tracks whose name contains query, case-insensitively.
func (s *StubStats) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	s.mu.Lock()
	s.searches = append(s.searches, query)
	s.mu.Unlock()

	if err := s.fail("search"); err != nil {
		return nil, err
	}
	var out []models.Track
	for _, t := range s.TracksValue {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(query)) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Searches returns the queries SearchTracks received, in order.
func (s *StubStats) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	mu       sync.Mutex
	calls    int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.response, m.err
}

// Calls reports how many requests reached the transport.
func (m *MockRoundTripper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
