package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/statify/internal/models"
)

func TestDebouncer(t *testing.T) {
	t.Run("Coalesces Rapid Triggers", func(t *testing.T) {
		d := NewDebouncer(30 * time.Millisecond)
		var runs atomic.Int32
		var last atomic.Int32

		for i := 1; i <= 5; i++ {
			n := int32(i)
			d.Trigger(func() {
				runs.Add(1)
				last.Store(n)
			})
		}

		if !d.Pending() {
			t.Error("expected a pending task")
		}

		time.Sleep(150 * time.Millisecond)

		if runs.Load() != 1 {
			t.Errorf("expected one run, got %d", runs.Load())
		}
		if last.Load() != 5 {
			t.Errorf("expected latest task to run, got %d", last.Load())
		}
		if d.Pending() {
			t.Error("expected nothing pending after run")
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		var runs atomic.Int32
		d.Trigger(func() { runs.Add(1) })
		d.Cancel()

		time.Sleep(80 * time.Millisecond)

		if runs.Load() != 0 {
			t.Errorf("expected canceled task not to run, got %d", runs.Load())
		}
		if d.Pending() {
			t.Error("expected nothing pending")
		}
	})
}

type resultSink struct {
	mu      sync.Mutex
	results []SearchResult
	ch      chan SearchResult
}

func newResultSink() *resultSink {
	return &resultSink{ch: make(chan SearchResult, 10)}
}

func (r *resultSink) deliver(res SearchResult) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	r.ch <- res
}

func (r *resultSink) next(t *testing.T) SearchResult {
	t.Helper()
	select {
	case res := <-r.ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search result")
		return SearchResult{}
	}
}

func TestSearcher(t *testing.T) {
	t.Run("Debounces Typing", func(t *testing.T) {
		var calls atomic.Int32
		var lastQuery atomic.Value
		src := &mockSource{searchFunc: func(ctx context.Context, q string) ([]models.Track, error) {
			calls.Add(1)
			lastQuery.Store(q)
			return []models.Track{{ID: q}}, nil
		}}

		sink := newResultSink()
		s := NewSearcher(src, 30*time.Millisecond, 10, sink.deliver)
		for _, q := range []string{"d", "da", "daf", "daft"} {
			s.Input(q)
		}

		res := sink.next(t)
		if res.Query != "daft" || len(res.Tracks) != 1 {
			t.Errorf("unexpected result %+v", res)
		}
		time.Sleep(60 * time.Millisecond)
		if calls.Load() != 1 {
			t.Errorf("expected one search, got %d", calls.Load())
		}
	})

	t.Run("Stale Response Discarded", func(t *testing.T) {
		release := make(chan struct{})
		var firstCanceled atomic.Bool
		src := &mockSource{searchFunc: func(ctx context.Context, q string) ([]models.Track, error) {
			if q == "slow" {
				select {
				case <-ctx.Done():
					firstCanceled.Store(true)
				case <-release:
				}
				return []models.Track{{ID: "stale"}}, nil
			}
			return []models.Track{{ID: "fresh"}}, nil
		}}

		sink := newResultSink()
		s := NewSearcher(src, 5*time.Millisecond, 10, sink.deliver)

		s.Input("slow")
		time.Sleep(40 * time.Millisecond) // let the slow request start
		s.Input("fast")

		res := sink.next(t)
		close(release)
		time.Sleep(40 * time.Millisecond)

		if res.Query != "fast" || res.Tracks[0].ID != "fresh" {
			t.Errorf("expected fresh result, got %+v", res)
		}
		if res.Generation != s.Current() {
			t.Errorf("expected current generation %d, got %d", s.Current(), res.Generation)
		}
		if !firstCanceled.Load() {
			t.Error("expected superseded request to be canceled")
		}

		sink.mu.Lock()
		defer sink.mu.Unlock()
		for _, r := range sink.results {
			for _, tr := range r.Tracks {
				if tr.ID == "stale" {
					t.Error("stale result was delivered")
				}
			}
		}
	})

	t.Run("Empty Query Clears Immediately", func(t *testing.T) {
		var calls atomic.Int32
		src := &mockSource{searchFunc: func(ctx context.Context, q string) ([]models.Track, error) {
			calls.Add(1)
			return nil, nil
		}}

		sink := newResultSink()
		s := NewSearcher(src, time.Hour, 10, sink.deliver)
		s.Input("pending")
		s.Input("   ")

		res := sink.next(t)
		if res.Query != "" || len(res.Tracks) != 0 {
			t.Errorf("expected cleared result, got %+v", res)
		}
		if s.Pending() {
			t.Error("expected pending search to be canceled")
		}
		if calls.Load() != 0 {
			t.Errorf("expected no searches, got %d", calls.Load())
		}
	})

	t.Run("Stop", func(t *testing.T) {
		var calls atomic.Int32
		src := &mockSource{searchFunc: func(ctx context.Context, q string) ([]models.Track, error) {
			calls.Add(1)
			return nil, nil
		}}

		sink := newResultSink()
		s := NewSearcher(src, 20*time.Millisecond, 10, sink.deliver)
		s.Input("query")
		s.Stop()

		time.Sleep(80 * time.Millisecond)
		if calls.Load() != 0 {
			t.Errorf("expected no search after stop, got %d", calls.Load())
		}
	})
}
