// Package coverage reconciles the three stores into a coverage report:
// which discovered targets were extracted, which failed permanently and
// which were never attempted.
package coverage

import (
	"sort"
	"time"

	"github.com/takumif/regtrawl/internal/model"
)

// Status is the overall verdict on a crawl's completeness.
type Status string

const (
	StatusExcellent    Status = "excellent"
	StatusAcceptable   Status = "acceptable"
	StatusInsufficient Status = "insufficient"
)

// Thresholds are the coverage percentage bands, 0-100.
type Thresholds struct {
	Excellent  float64
	Acceptable float64
}

// Report is the reconciled view of one crawl. The counts always satisfy
// Discovered == Extracted + Failed + Missing.
type Report struct {
	Discovered int
	Extracted  int
	Failed     int
	Missing    int

	MissingURLs    []string
	FailuresByKind map[string][]model.FailedTarget

	Status      Status
	GeneratedAt time.Time
}

// CoveragePercent is the share of discovered targets extracted, 0-100.
// An empty crawl counts as full coverage.
func (r *Report) CoveragePercent() float64 {
	if r.Discovered == 0 {
		return 100
	}
	return float64(r.Extracted) / float64(r.Discovered) * 100
}

// AccountedPercent is the share of discovered targets with a definite
// outcome, extracted or permanently failed. This is what the status bands
// measure: a failed target is a known quantity, a missing one is not.
func (r *Report) AccountedPercent() float64 {
	if r.Discovered == 0 {
		return 100
	}
	return float64(r.Extracted+r.Failed) / float64(r.Discovered) * 100
}

// Reconcile classifies every discovered target. Extraction is
// authoritative: a target that both succeeded and has a stale failure
// record counts as extracted. Targets in neither store are missing.
func Reconcile(discovered []model.DiscoveredTarget, extracted map[string]struct{}, failures map[string]model.FailedTarget, th Thresholds) *Report {
	r := &Report{
		Discovered:     len(discovered),
		FailuresByKind: make(map[string][]model.FailedTarget),
		GeneratedAt:    time.Now().UTC(),
	}

	for _, t := range discovered {
		if _, ok := extracted[t.URL]; ok {
			r.Extracted++
			continue
		}
		if f, ok := failures[t.URL]; ok {
			r.Failed++
			r.FailuresByKind[f.ErrorKind] = append(r.FailuresByKind[f.ErrorKind], f)
			continue
		}
		r.Missing++
		r.MissingURLs = append(r.MissingURLs, t.URL)
	}
	sort.Strings(r.MissingURLs)
	for _, fs := range r.FailuresByKind {
		sort.Slice(fs, func(i, j int) bool { return fs[i].URL < fs[j].URL })
	}

	pct := r.AccountedPercent()
	switch {
	case pct >= th.Excellent:
		r.Status = StatusExcellent
	case pct >= th.Acceptable:
		r.Status = StatusAcceptable
	default:
		r.Status = StatusInsufficient
	}
	return r
}
