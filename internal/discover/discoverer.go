// Package discover implements breadth-first discovery of leaf/section URLs
// reachable from a set of seed browse pages. Progress is checkpointed so an
// interrupted run resumes without re-fetching visited pages or re-emitting
// already-discovered targets.
package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/takumif/regtrawl/internal/config"
	"github.com/takumif/regtrawl/internal/fetch"
	"github.com/takumif/regtrawl/internal/model"
	"github.com/takumif/regtrawl/internal/parser"
	"github.com/takumif/regtrawl/internal/storage"
	"github.com/takumif/regtrawl/internal/urlkey"
)

// How long an idle worker waits before polling the frontier again.
const idlePoll = 100 * time.Millisecond

// Discoverer is the discovery engine. One instance owns the crawl state
// and the discovered-targets store for the duration of a run.
type Discoverer struct {
	cfg     *config.Config
	fetcher fetch.Fetcher
	class   *Classifier
	store   *storage.DiscoveredStore
	cpStore *storage.CheckpointStore

	state        *crawlState
	limiter      *rate.Limiter
	sem          *semaphore.Weighted
	allowedHosts map[string]struct{}

	results    chan model.DiscoveredTarget
	discovered atomic.Int64 // total targets in the store, mirrored into checkpoints
	writeErr   atomic.Value // first fatal store error, set by the writer
	cancel     context.CancelFunc
}

// New creates a discovery engine. The allowed host set is derived from the
// seed URLs: links leading off-site are never followed or recorded.
func New(cfg *config.Config, fetcher fetch.Fetcher, store *storage.DiscoveredStore, cpStore *storage.CheckpointStore) (*Discoverer, error) {
	class, err := NewClassifier(cfg.SectionPatterns, cfg.BrowsePatterns)
	if err != nil {
		return nil, err
	}

	// Hosts come from the canonical seed form so membership checks against
	// canonical link keys compare like with like.
	allowed := make(map[string]struct{})
	for _, seed := range cfg.SeedURLs {
		key, err := urlkey.Canonicalize(seed)
		if err != nil {
			return nil, fmt.Errorf("invalid seed URL %q: %w", seed, err)
		}
		u, err := url.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("invalid seed URL %q: %w", seed, err)
		}
		allowed[u.Host] = struct{}{}
	}

	return &Discoverer{
		cfg:          cfg,
		fetcher:      fetcher,
		class:        class,
		store:        store,
		cpStore:      cpStore,
		state:        newCrawlState(),
		limiter:      rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		sem:          semaphore.NewWeighted(int64(cfg.Concurrency)),
		allowedHosts: allowed,
		results:      make(chan model.DiscoveredTarget, cfg.Concurrency),
	}, nil
}

// Run executes the discovery crawl until the frontier is empty, a
// configured bound is reached, or ctx is cancelled. A checkpoint is
// persisted every CheckpointInterval discoveries and unconditionally on
// the way out.
func (d *Discoverer) Run(ctx context.Context) error {
	seen, err := d.loadPriorState()
	if err != nil {
		return err
	}

	for _, seed := range d.cfg.SeedURLs {
		key, err := urlkey.Canonicalize(seed)
		if err != nil {
			return fmt.Errorf("seed URL: %w", err)
		}
		d.state.enqueue(key, 0)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.cancel = cancel

	writerDone := make(chan struct{})
	go d.writer(seen, writerDone)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Concurrency; i++ {
		id := i
		g.Go(func() error { return d.worker(gctx, id) })
	}
	runErr := g.Wait()

	close(d.results)
	<-writerDone

	if err := d.checkpoint(); err != nil {
		slog.Error("Failed to persist final checkpoint", "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	if werr, ok := d.writeErr.Load().(error); ok && werr != nil {
		return werr
	}
	if errors.Is(runErr, context.Canceled) {
		slog.Info("Discovery cancelled", "visited", d.state.visitedCount(), "discovered", d.discovered.Load())
		return nil
	}
	if runErr != nil {
		return runErr
	}

	slog.Info("Discovery complete", "visited", d.state.visitedCount(), "discovered", d.discovered.Load())
	return nil
}

// loadPriorState restores the checkpoint (if any) and the set of already
// discovered targets, so a resumed run neither re-fetches visited browse
// pages nor re-emits known leaves.
func (d *Discoverer) loadPriorState() (map[string]struct{}, error) {
	cp, err := d.cpStore.Load()
	if err != nil {
		return nil, err
	}
	if cp != nil {
		d.state.restore(cp)
		slog.Info("Resuming discovery from checkpoint",
			"visited", len(cp.Visited), "frontier", len(cp.Frontier), "saved_at", cp.Timestamp)
	}

	targets, err := storage.LoadDiscovered(d.cfg.DiscoveredPath())
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		seen[t.URL] = struct{}{}
	}
	d.discovered.Store(int64(len(seen)))
	if len(seen) > 0 {
		slog.Info("Loaded previously discovered targets", "count", len(seen))
	}
	return seen, nil
}

// worker pulls browse pages off the frontier until there is no work left,
// a bound is hit, or the context is cancelled.
func (d *Discoverer) worker(ctx context.Context, id int) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.boundReached() {
			slog.Debug("Worker stopping at configured bound", "worker_id", id)
			return nil
		}

		entry, ok := d.state.next()
		if !ok {
			if d.state.idle() {
				slog.Debug("Worker exiting, frontier drained", "worker_id", id)
				return nil
			}
			pause(ctx, idlePoll)
			continue
		}

		d.visit(ctx, id, entry)
	}
}

func (d *Discoverer) boundReached() bool {
	if d.cfg.MaxPages > 0 && d.state.visitedCount() >= d.cfg.MaxPages {
		return true
	}
	if d.cfg.MaxSections > 0 && int(d.discovered.Load()) >= d.cfg.MaxSections {
		return true
	}
	return false
}

// visit fetches one browse page, classifies its links, and feeds sections
// to the writer and browse links back into the frontier. Genuine failures
// are contained: a broken browse page is logged and dropped, never fatal.
// An interrupted page is instead released back to the frontier, so its
// links are not silently lost on resume.
func (d *Discoverer) visit(ctx context.Context, id int, entry model.FrontierEntry) {
	resp, err := d.fetchPage(ctx, entry.URL)
	if err != nil {
		if ctx.Err() != nil {
			d.state.abort(entry)
			return
		}
		slog.Warn("Browse page fetch failed, dropping from traversal",
			"worker_id", id, "url", entry.URL, "error", err)
		d.state.done(entry.URL)
		return
	}

	links, err := parser.ExtractLinks(resp.Body, resp.FinalURL)
	if err != nil {
		slog.Warn("Browse page parse failed, dropping from traversal",
			"worker_id", id, "url", entry.URL, "error", err)
		d.state.done(entry.URL)
		return
	}

	var sections, browses int
	for _, link := range links {
		key, err := urlkey.Canonicalize(link)
		if err != nil {
			slog.Debug("Skipping malformed link", "url", link, "source", entry.URL)
			continue
		}
		if !d.allowedHost(key) {
			continue
		}
		switch d.class.Classify(key) {
		case LinkSection:
			sections++
			select {
			case d.results <- model.DiscoveredTarget{URL: key, DiscoveredAt: time.Now().UTC()}:
			case <-ctx.Done():
				// Partially enumerated; re-fetch on resume. The writer's seen
				// set absorbs the links already emitted.
				d.state.abort(entry)
				return
			}
		case LinkBrowse:
			if d.state.enqueue(key, entry.Depth+1) {
				browses++
			}
		}
	}
	d.state.done(entry.URL)

	slog.Info("Visited browse page", "worker_id", id, "url", entry.URL,
		"depth", entry.Depth, "section_links", sections, "new_browse_links", browses)
}

// fetchPage applies the global concurrency bound and the politeness delay
// around a single fetch.
func (d *Discoverer) fetchPage(ctx context.Context, pageURL string) (*fetch.Response, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return d.fetcher.Get(ctx, pageURL)
}

func (d *Discoverer) allowedHost(canonicalURL string) bool {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return false
	}
	_, ok := d.allowedHosts[u.Host]
	return ok
}

// writer is the single goroutine appending to the discovered store. It
// dedupes against the seen set, so a canonical leaf URL is emitted at most
// once across a run, resumed or not.
func (d *Discoverer) writer(seen map[string]struct{}, done chan<- struct{}) {
	defer close(done)
	for t := range d.results {
		if _, ok := seen[t.URL]; ok {
			continue
		}
		seen[t.URL] = struct{}{}

		if err := d.store.Append(t); err != nil {
			// Store write failures are resource exhaustion, fatal to the run.
			d.writeErr.Store(fmt.Errorf("discovered store: %w", err))
			d.cancel()
			return
		}
		n := d.discovered.Add(1)
		slog.Debug("Recorded discovered target", "url", t.URL, "total", n)

		if d.cfg.CheckpointInterval > 0 && n%int64(d.cfg.CheckpointInterval) == 0 {
			if err := d.checkpoint(); err != nil {
				slog.Error("Failed to persist checkpoint", "error", err)
			}
		}
	}
}

func (d *Discoverer) checkpoint() error {
	cp := d.state.snapshot(int(d.discovered.Load()))
	cp.Timestamp = time.Now().UTC()
	if err := d.cpStore.Save(cp); err != nil {
		return err
	}
	slog.Info("Checkpoint saved", "visited", len(cp.Visited),
		"frontier", len(cp.Frontier), "discovered", cp.DiscoveredCount)
	return nil
}

// pause sleeps for delay or until ctx is cancelled.
func pause(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
