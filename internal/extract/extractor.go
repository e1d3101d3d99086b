// Package extract fetches discovered section pages, parses them into
// structured records and appends them to the sections store. Extraction is
// idempotent: targets already present in the store are skipped, so a
// re-run only works on what is missing.
package extract

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/takumif/regtrawl/internal/config"
	"github.com/takumif/regtrawl/internal/fetch"
	"github.com/takumif/regtrawl/internal/model"
	"github.com/takumif/regtrawl/internal/parser"
	"github.com/takumif/regtrawl/internal/storage"
)

// Stats summarizes one extraction pass.
type Stats struct {
	Total     int // targets considered
	Skipped   int // already extracted before the pass started
	Extracted int // newly extracted this pass
	Failed    int // permanently failed this pass
}

// Extractor runs the extraction pass over discovered targets.
type Extractor struct {
	cfg      *config.Config
	fetcher  fetch.Fetcher
	parser   *parser.SectionParser
	sections *storage.SectionStore
	failures *storage.FailureStore

	limiter *rate.Limiter
	sem     *semaphore.Weighted
	policy  Policy

	// sleep is swappable so tests do not wait out real backoff delays.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates an extractor wired to the given stores.
func New(cfg *config.Config, fetcher fetch.Fetcher, sections *storage.SectionStore, failures *storage.FailureStore) *Extractor {
	return &Extractor{
		cfg:      cfg,
		fetcher:  fetcher,
		parser:   parser.NewSectionParser(),
		sections: sections,
		failures: failures,
		limiter:  rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		sem:      semaphore.NewWeighted(int64(cfg.Concurrency)),
		policy: Policy{
			MaxAttempts:    cfg.MaxRetries,
			BaseDelay:      cfg.RetryBaseDelay,
			MaxDelay:       cfg.RetryMaxDelay,
			RateLimitFloor: cfg.RetryBaseDelay * 4,
		},
		sleep: pause,
	}
}

// Run extracts every discovered target not yet in the sections store.
// limit > 0 caps how many targets this pass works on.
func (e *Extractor) Run(ctx context.Context, limit int) (Stats, error) {
	targets, err := storage.LoadDiscovered(e.cfg.DiscoveredPath())
	if err != nil {
		return Stats{}, err
	}
	extracted, err := storage.LoadSectionURLs(e.cfg.SectionsPath())
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.Total = len(targets)
	work := make([]workItem, 0, len(targets))
	for _, t := range targets {
		if _, ok := extracted[t.URL]; ok {
			stats.Skipped++
			continue
		}
		work = append(work, workItem{url: t.URL})
	}
	if limit > 0 && len(work) > limit {
		work = work[:limit]
		stats.Total = stats.Skipped + limit
	}

	slog.Info("Starting extraction pass",
		"targets", stats.Total, "pending", len(work), "skipped", stats.Skipped)
	return e.process(ctx, work, stats)
}

// RetryFailed re-attempts every target in the failure store that has not
// been extracted since. Prior attempt counts carry into the new failure
// records, so attempt_count stays cumulative across passes.
func (e *Extractor) RetryFailed(ctx context.Context) (Stats, error) {
	failures, err := storage.LoadFailures(e.cfg.FailedPath())
	if err != nil {
		return Stats{}, err
	}
	extracted, err := storage.LoadSectionURLs(e.cfg.SectionsPath())
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.Total = len(failures)
	work := make([]workItem, 0, len(failures))
	for url, f := range failures {
		if _, ok := extracted[url]; ok {
			stats.Skipped++
			continue
		}
		work = append(work, workItem{url: url, baseAttempts: f.AttemptCount})
	}
	sort.Slice(work, func(i, j int) bool { return work[i].url < work[j].url })

	slog.Info("Starting recovery pass", "failed", stats.Total, "pending", len(work))
	return e.process(ctx, work, stats)
}

type workItem struct {
	url          string
	baseAttempts int
}

type outcome struct {
	section *model.Section
	failure *model.FailedTarget
}

// process fans work out to Concurrency workers. A single writer goroutine
// owns both stores, so appends never interleave.
func (e *Extractor) process(ctx context.Context, work []workItem, stats Stats) (Stats, error) {
	if len(work) == 0 {
		return stats, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan workItem)
	results := make(chan outcome, e.cfg.Concurrency)

	writerDone := make(chan error, 1)
	go func() {
		for res := range results {
			switch {
			case res.section != nil:
				if err := e.sections.Append(*res.section); err != nil {
					writerDone <- err
					cancel()
					return
				}
				stats.Extracted++
				slog.Info("Extracted section", "citation", res.section.Citation,
					"url", res.section.SourceURL)
			case res.failure != nil:
				if err := e.failures.Append(*res.failure); err != nil {
					writerDone <- err
					cancel()
					return
				}
				stats.Failed++
				slog.Warn("Target failed permanently", "url", res.failure.URL,
					"kind", res.failure.ErrorKind, "attempts", res.failure.AttemptCount)
			}
		}
		writerDone <- nil
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.cfg.Concurrency; i++ {
		g.Go(func() error {
			for item := range jobs {
				res, ok := e.processOne(gctx, item)
				if !ok {
					return gctx.Err()
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

feed:
	for _, item := range work {
		select {
		case jobs <- item:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)

	runErr := g.Wait()
	close(results)
	if werr := <-writerDone; werr != nil {
		return stats, werr
	}
	if runErr != nil && ctx.Err() == nil {
		return stats, runErr
	}

	slog.Info("Extraction pass finished",
		"extracted", stats.Extracted, "failed", stats.Failed, "skipped", stats.Skipped)
	return stats, nil
}

// processOne drives a single target through the attempt loop. It returns
// ok=false only when the context was cancelled mid-flight; a cancelled
// target writes nothing and stays pending for the next run.
func (e *Extractor) processOne(ctx context.Context, item workItem) (outcome, bool) {
	for attempt := 0; ; attempt++ {
		state := stateInProgress
		sec, err := e.fetchAndParse(ctx, item.url)
		if err == nil {
			state = stateSuccess
			slog.Debug("Extraction succeeded", "url", item.url,
				"state", state, "attempt", attempt+1)
			return outcome{section: sec}, true
		}
		if ctx.Err() != nil {
			return outcome{}, false
		}

		kind := fetch.KindOf(err)
		if e.policy.Terminal(kind, attempt) {
			state = stateFailedPermanent
			slog.Debug("Extraction gave up", "url", item.url, "state", state, "kind", kind)
			return outcome{failure: &model.FailedTarget{
				URL:           item.url,
				ErrorKind:     string(kind),
				AttemptCount:  item.baseAttempts + attempt + 1,
				LastError:     err.Error(),
				LastAttemptAt: time.Now().UTC(),
			}}, true
		}

		state = stateRetrying
		delay := e.policy.Backoff(kind, attempt)
		slog.Debug("Retrying target", "url", item.url, "state", state,
			"kind", kind, "attempt", attempt+1, "backoff", delay)
		e.sleep(ctx, delay)
		if ctx.Err() != nil {
			return outcome{}, false
		}
	}
}

// fetchAndParse performs one rate-limited fetch and parse attempt. Parse
// failures are surfaced as terminal errors: retrying cannot fix a page
// whose markup we do not understand.
func (e *Extractor) fetchAndParse(ctx context.Context, url string) (*model.Section, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := e.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	sec, err := e.parser.Parse(resp.Body, url)
	if err != nil {
		return nil, &fetch.Error{Kind: fetch.KindParse, URL: url, Err: err}
	}
	return sec, nil
}

func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
