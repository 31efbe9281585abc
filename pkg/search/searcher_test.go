package search

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sdnegeri1godegan/library/pkg/api"
)

// gatedDispatcher blocks selected queries until released, so tests can
// force an early request to finish after a later one.
type gatedDispatcher struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedDispatcher() *gatedDispatcher {
	return &gatedDispatcher{gates: make(map[string]chan struct{})}
}

func (g *gatedDispatcher) gate(query string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan struct{})
	g.gates[query] = ch
	return ch
}

func (g *gatedDispatcher) BooksWithFilters(_ context.Context, params map[string]string) api.Envelope {
	g.mu.Lock()
	gate := g.gates[params["query"]]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	body, _ := json.Marshal(map[string]any{
		"data":       []map[string]string{{"Barcode": "B001", "Judul_Buku": params["query"]}},
		"pagination": map[string]int{"page": 1, "pages": 1, "total": 1},
	})
	return api.Envelope{Success: true, Data: body}
}

func collectResults() (func(Result), func() []Result) {
	var mu sync.Mutex
	var results []Result
	deliver := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}
	snapshot := func() []Result {
		mu.Lock()
		defer mu.Unlock()
		return append([]Result(nil), results...)
	}
	return deliver, snapshot
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition never reached")
}

func TestSearcherDiscardsStaleResponse(t *testing.T) {
	dispatcher := newGatedDispatcher()
	slowFirst := dispatcher.gate("lama")
	deliver, snapshot := collectResults()
	s := NewSearcher(dispatcher, deliver)
	defer s.Close()

	first := NewQuery().WithFilter(FieldFreeText, "lama")
	second := NewQuery().WithFilter(FieldFreeText, "baru")

	s.Search(context.Background(), first)
	s.Search(context.Background(), second)

	// The second, unblocked search renders first.
	waitFor(t, func() bool { return len(snapshot()) == 1 })
	// Now the first one resolves and must be dropped.
	close(slowFirst)
	time.Sleep(50 * time.Millisecond)

	results := snapshot()
	if len(results) != 1 {
		t.Fatalf("stale response delivered, results=%d", len(results))
	}
	if results[0].Query.FreeText != "baru" {
		t.Fatalf("wrong winner: %+v", results[0].Query)
	}
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}
}

func TestSearcherDebounceCoalesces(t *testing.T) {
	dispatcher := newGatedDispatcher()
	deliver, snapshot := collectResults()
	s := NewSearcher(dispatcher, deliver, WithDebounce(30*time.Millisecond))
	defer s.Close()

	for _, text := range []string{"mat", "mate", "matem", "matematika"} {
		s.SearchDebounced(context.Background(), NewQuery().WithFilter(FieldFreeText, text))
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return len(snapshot()) == 1 })
	time.Sleep(60 * time.Millisecond)

	results := snapshot()
	if len(results) != 1 {
		t.Fatalf("burst must collapse to one search, got %d", len(results))
	}
	if results[0].Query.FreeText != "matematika" {
		t.Fatalf("last keystroke must win, got %q", results[0].Query.FreeText)
	}
}

func TestSearcherSkipsShortText(t *testing.T) {
	dispatcher := newGatedDispatcher()
	deliver, snapshot := collectResults()
	s := NewSearcher(dispatcher, deliver, WithDebounce(10*time.Millisecond))
	defer s.Close()

	s.SearchDebounced(context.Background(), NewQuery().WithFilter(FieldFreeText, "ab"))
	time.Sleep(50 * time.Millisecond)
	if got := len(snapshot()); got != 0 {
		t.Fatalf("text below the minimum must not dispatch, got %d results", got)
	}
}

func TestSearcherEmptyTextClears(t *testing.T) {
	dispatcher := newGatedDispatcher()
	deliver, snapshot := collectResults()
	s := NewSearcher(dispatcher, deliver, WithDebounce(10*time.Millisecond))
	defer s.Close()

	s.SearchDebounced(context.Background(), NewQuery())
	waitFor(t, func() bool { return len(snapshot()) == 1 })
	if results := snapshot(); results[0].Query.FreeText != "" {
		t.Fatalf("empty box must dispatch the unfiltered query, got %+v", results[0].Query)
	}
}

func TestSearcherCloseCancelsPending(t *testing.T) {
	dispatcher := newGatedDispatcher()
	deliver, snapshot := collectResults()
	s := NewSearcher(dispatcher, deliver, WithDebounce(30*time.Millisecond))

	s.SearchDebounced(context.Background(), NewQuery().WithFilter(FieldFreeText, "matematika"))
	s.Close()
	time.Sleep(60 * time.Millisecond)
	if got := len(snapshot()); got != 0 {
		t.Fatalf("Close must cancel the pending dispatch, got %d results", got)
	}
}

func TestSearcherSequenceIncreases(t *testing.T) {
	dispatcher := newGatedDispatcher()
	deliver, snapshot := collectResults()
	s := NewSearcher(dispatcher, deliver)
	defer s.Close()

	var want uint64
	for _, text := range []string{"sejarah", "sains", "sastra"} {
		want++
		s.Search(context.Background(), NewQuery().WithFilter(FieldFreeText, text))
		target := want
		waitFor(t, func() bool {
			rs := snapshot()
			return len(rs) > 0 && rs[len(rs)-1].Seq == target
		})
	}

	results := snapshot()
	var last uint64
	for _, r := range results {
		if r.Seq <= last {
			t.Fatalf("sequence not increasing: %+v", results)
		}
		last = r.Seq
	}
}
