package tasks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/statify/internal/models"
)

// Debouncer runs the most recently triggered task once the input has been quiet for the
// configured delay. At most one task is pending at any time.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger cancels any pending task and schedules fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a Stop that lost the race with the timer firing
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending task, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

// Pending reports whether a task is scheduled and has not started.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// TrackSearcher is the search half of [services.StatsSource].
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// SearchResult is one delivered search. Generation identifies the input that produced it.
type SearchResult struct {
	Query      string
	Tracks     []models.Track
	Err        error
	Generation uint64
}

// Searcher debounces free-text input into track searches.
//
// Every Input starts a new generation, cancels the in-flight request of the previous one
// and discards its response, so results never arrive out of order. Consumers that queue
// results (a UI event loop) should still drop any whose Generation is not [Searcher.Current].
type Searcher struct {
	source    TrackSearcher
	debouncer *Debouncer
	limit     int
	deliver   func(SearchResult)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewSearcher creates a searcher delivering results through deliver, which is called from
// a background goroutine.
func NewSearcher(source TrackSearcher, delay time.Duration, limit int, deliver func(SearchResult)) *Searcher {
	return &Searcher{
		source:    source,
		debouncer: NewDebouncer(delay),
		limit:     limit,
		deliver:   deliver,
	}
}

// Input records the latest query. An empty query clears results immediately.
func (s *Searcher) Input(query string) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	if query == "" {
		s.debouncer.Cancel()
		s.deliver(SearchResult{Generation: gen})
		return
	}

	s.debouncer.Trigger(func() { s.run(gen, query) })
}

// Current returns the generation of the latest input.
func (s *Searcher) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Pending reports whether a search is waiting for the quiet interval.
func (s *Searcher) Pending() bool {
	return s.debouncer.Pending()
}

// Stop cancels pending and in-flight work; later results are discarded.
func (s *Searcher) Stop() {
	s.debouncer.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(gen uint64, query string) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	tracks, err := s.source.SearchTracks(ctx, query, s.limit)

	s.mu.Lock()
	current := gen == s.gen
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current {
		return
	}
	s.deliver(SearchResult{Query: query, Tracks: tracks, Err: err, Generation: gen})
}
