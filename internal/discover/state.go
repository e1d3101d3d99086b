package discover

import (
	"sort"
	"sync"

	"github.com/takumif/regtrawl/internal/model"
)

// crawlState holds all mutable traversal state for one discovery run: the
// frontier queue, the visited set and the in-flight pages. It is owned by
// the Discoverer and mutated only through its methods; checkpointing
// serializes it wholesale via snapshot.
type crawlState struct {
	mu       sync.Mutex
	frontier []model.FrontierEntry
	queued   map[string]struct{}
	visited  map[string]struct{}
	inflight map[string]model.FrontierEntry
}

func newCrawlState() *crawlState {
	return &crawlState{
		queued:   make(map[string]struct{}),
		visited:  make(map[string]struct{}),
		inflight: make(map[string]model.FrontierEntry),
	}
}

// restore loads visited set and frontier from a checkpoint.
func (s *crawlState) restore(cp *model.Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range cp.Visited {
		s.visited[u] = struct{}{}
	}
	for _, e := range cp.Frontier {
		if _, ok := s.visited[e.URL]; ok {
			continue
		}
		if _, ok := s.queued[e.URL]; ok {
			continue
		}
		s.queued[e.URL] = struct{}{}
		s.frontier = append(s.frontier, e)
	}
}

// enqueue adds url to the frontier unless it was already visited, queued
// or is currently being fetched. The visited-set check is what guarantees
// termination on cyclic link graphs.
func (s *crawlState) enqueue(url string, depth int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visited[url]; ok {
		return false
	}
	if _, ok := s.queued[url]; ok {
		return false
	}
	if _, ok := s.inflight[url]; ok {
		return false
	}
	s.queued[url] = struct{}{}
	s.frontier = append(s.frontier, model.FrontierEntry{URL: url, Depth: depth})
	return true
}

// next pops the head of the frontier and marks it in-flight.
// Returns false when the frontier is empty.
func (s *crawlState) next() (model.FrontierEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frontier) == 0 {
		return model.FrontierEntry{}, false
	}
	entry := s.frontier[0]
	s.frontier = s.frontier[1:]
	delete(s.queued, entry.URL)
	s.inflight[entry.URL] = entry
	return entry, true
}

// done moves an in-flight page into the visited set. Failed pages are
// marked visited too: they are deliberately dropped from traversal rather
// than retried.
func (s *crawlState) done(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, url)
	s.visited[url] = struct{}{}
}

// abort returns an in-flight page to the frontier. Used when a fetch was
// interrupted rather than failed: the page's links were never enumerated,
// so a resume must fetch it again instead of treating it as visited.
func (s *crawlState) abort(entry model.FrontierEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, entry.URL)
	if _, ok := s.visited[entry.URL]; ok {
		return
	}
	if _, ok := s.queued[entry.URL]; ok {
		return
	}
	s.queued[entry.URL] = struct{}{}
	s.frontier = append(s.frontier, entry)
}

// idle reports whether there is no work left anywhere.
func (s *crawlState) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frontier) == 0 && len(s.inflight) == 0
}

func (s *crawlState) visitedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

// snapshot captures a consistent checkpoint. In-flight pages go back into
// the frontier, not the visited set: their links have not been recorded
// yet, so a resume must fetch them again.
func (s *crawlState) snapshot(discoveredCount int) *model.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	visited := make([]string, 0, len(s.visited))
	for u := range s.visited {
		visited = append(visited, u)
	}
	sort.Strings(visited)

	frontier := make([]model.FrontierEntry, 0, len(s.frontier)+len(s.inflight))
	frontier = append(frontier, s.frontier...)
	for _, e := range s.inflight {
		frontier = append(frontier, e)
	}

	return &model.Checkpoint{
		Visited:         visited,
		Frontier:        frontier,
		DiscoveredCount: discoveredCount,
	}
}
