package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sdnegeri1godegan/library/pkg/api"
)

const (
	defaultDebounce = 500 * time.Millisecond
	defaultMinChars = 3
)

// Dispatcher is the slice of the API client a Searcher needs. Satisfied
// by *api.Client via BooksWithFilters.
type Dispatcher interface {
	BooksWithFilters(ctx context.Context, params map[string]string) api.Envelope
}

// Result is one delivered search outcome.
type Result struct {
	Seq   uint64
	Query Query
	Page  PageResult
	Err   error
}

// Searcher serializes searches for one search box. Every dispatch gets a
// monotonically increasing sequence number, and a response older than the
// newest one already delivered is dropped, so a slow early request can
// never overwrite the result of a fast later one.
type Searcher struct {
	client   Dispatcher
	deliver  func(Result)
	debounce *Debouncer
	minChars int

	seq       atomic.Uint64
	mu        sync.Mutex
	delivered uint64
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithDebounce overrides the 500ms keystroke quiet period.
func WithDebounce(wait time.Duration) SearcherOption {
	return func(s *Searcher) { s.debounce = NewDebouncer(wait) }
}

// WithMinChars overrides the minimum free-text length for a debounced
// search.
func WithMinChars(n int) SearcherOption {
	return func(s *Searcher) { s.minChars = n }
}

// NewSearcher wires a search box to the dispatcher. deliver receives
// results in sequence order; calls to it are serialized.
func NewSearcher(client Dispatcher, deliver func(Result), opts ...SearcherOption) *Searcher {
	s := &Searcher{
		client:   client,
		deliver:  deliver,
		debounce: NewDebouncer(defaultDebounce),
		minChars: defaultMinChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search dispatches immediately (explicit button press or page change).
func (s *Searcher) Search(ctx context.Context, q Query) {
	s.dispatch(ctx, q)
}

// SearchDebounced is the keystroke path: it waits out the quiet period
// and skips free text shorter than the minimum, except an emptied box,
// which clears back to the unfiltered result.
func (s *Searcher) SearchDebounced(ctx context.Context, q Query) {
	text := strings.TrimSpace(q.FreeText)
	if text != "" && len([]rune(text)) < s.minChars {
		return
	}
	s.debounce.Debounce("search", func() {
		s.dispatch(ctx, q)
	})
}

// Close cancels pending debounced dispatches. In-flight responses still
// resolve and stay subject to the stale discard.
func (s *Searcher) Close() {
	s.debounce.Clear()
}

func (s *Searcher) dispatch(ctx context.Context, q Query) {
	seq := s.seq.Add(1)
	go func() {
		env := s.client.BooksWithFilters(ctx, q.Params())
		page, err := BuildPageResult(q, env)

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq <= s.delivered {
			// Stale: a newer search already rendered.
			return
		}
		s.delivered = seq
		s.deliver(Result{Seq: seq, Query: q, Page: page, Err: err})
	}()
}
