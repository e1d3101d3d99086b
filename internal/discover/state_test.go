package discover

import (
	"testing"

	"github.com/takumif/regtrawl/internal/model"
)

func TestEnqueueDeduplicates(t *testing.T) {
	s := newCrawlState()

	if !s.enqueue("https://a.example/1", 0) {
		t.Fatal("first enqueue rejected")
	}
	if s.enqueue("https://a.example/1", 0) {
		t.Error("duplicate queued URL accepted")
	}

	entry, ok := s.next()
	if !ok || entry.URL != "https://a.example/1" {
		t.Fatalf("next() = %+v, %v", entry, ok)
	}
	if s.enqueue("https://a.example/1", 1) {
		t.Error("in-flight URL accepted")
	}

	s.done(entry.URL)
	if s.enqueue("https://a.example/1", 1) {
		t.Error("visited URL accepted")
	}
}

func TestNextPopsInOrder(t *testing.T) {
	s := newCrawlState()
	s.enqueue("https://a.example/1", 0)
	s.enqueue("https://a.example/2", 1)

	first, _ := s.next()
	second, _ := s.next()
	if first.URL != "https://a.example/1" || second.URL != "https://a.example/2" {
		t.Errorf("pop order wrong: %s then %s", first.URL, second.URL)
	}
	if _, ok := s.next(); ok {
		t.Error("next() on drained frontier returned work")
	}
	if s.idle() {
		t.Error("idle() true while pages are in flight")
	}

	s.done(first.URL)
	s.done(second.URL)
	if !s.idle() {
		t.Error("idle() false after all work completed")
	}
	if s.visitedCount() != 2 {
		t.Errorf("visitedCount() = %d, want 2", s.visitedCount())
	}
}

func TestAbortRequeuesInflightPage(t *testing.T) {
	s := newCrawlState()
	s.enqueue("https://a.example/1", 3)

	entry, _ := s.next()
	s.abort(entry)

	if s.visitedCount() != 0 {
		t.Error("aborted page must not count as visited")
	}
	requeued, ok := s.next()
	if !ok || requeued.URL != entry.URL || requeued.Depth != 3 {
		t.Fatalf("next() after abort = %+v, %v, want the aborted entry back", requeued, ok)
	}

	// A page completed elsewhere is not resurrected by a late abort.
	s.done(entry.URL)
	s.abort(entry)
	if _, ok := s.next(); ok {
		t.Error("abort re-enqueued a visited page")
	}
}

func TestSnapshotReturnsInflightToFrontier(t *testing.T) {
	s := newCrawlState()
	s.enqueue("https://a.example/done", 0)
	s.enqueue("https://a.example/flying", 1)
	s.enqueue("https://a.example/waiting", 2)

	e, _ := s.next()
	s.done(e.URL)
	s.next() // flying stays in flight

	cp := s.snapshot(7)
	if cp.DiscoveredCount != 7 {
		t.Errorf("DiscoveredCount = %d, want 7", cp.DiscoveredCount)
	}
	if len(cp.Visited) != 1 || cp.Visited[0] != "https://a.example/done" {
		t.Errorf("Visited = %v", cp.Visited)
	}

	urls := make(map[string]bool)
	for _, f := range cp.Frontier {
		urls[f.URL] = true
	}
	if !urls["https://a.example/flying"] || !urls["https://a.example/waiting"] {
		t.Errorf("frontier missing in-flight or queued page: %v", cp.Frontier)
	}
}

func TestRestoreSkipsVisited(t *testing.T) {
	s := newCrawlState()
	s.restore(&model.Checkpoint{
		Visited: []string{"https://a.example/seen"},
		Frontier: []model.FrontierEntry{
			{URL: "https://a.example/seen", Depth: 1},
			{URL: "https://a.example/pending", Depth: 2},
		},
	})

	entry, ok := s.next()
	if !ok || entry.URL != "https://a.example/pending" || entry.Depth != 2 {
		t.Fatalf("next() = %+v, %v", entry, ok)
	}
	if _, ok := s.next(); ok {
		t.Error("visited URL restored into frontier")
	}
	if s.enqueue("https://a.example/seen", 0) {
		t.Error("restored visited URL accepted by enqueue")
	}
}
