package coverage

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/takumif/regtrawl/internal/model"
)

func defaultThresholds() Thresholds {
	return Thresholds{Excellent: 95, Acceptable: 80}
}

func discoveredSet(urls ...string) []model.DiscoveredTarget {
	out := make([]model.DiscoveredTarget, len(urls))
	for i, u := range urls {
		out[i] = model.DiscoveredTarget{URL: u, DiscoveredAt: time.Now().UTC()}
	}
	return out
}

func TestReconcilePartitionsEveryTarget(t *testing.T) {
	discovered := discoveredSet(
		"https://regs.example/document/a",
		"https://regs.example/document/b",
		"https://regs.example/document/c",
		"https://regs.example/document/d",
	)
	extracted := map[string]struct{}{
		"https://regs.example/document/a": {},
		"https://regs.example/document/b": {},
	}
	failures := map[string]model.FailedTarget{
		"https://regs.example/document/c": {
			URL: "https://regs.example/document/c", ErrorKind: "not_found", AttemptCount: 1,
		},
	}

	r := Reconcile(discovered, extracted, failures, defaultThresholds())

	if r.Discovered != 4 || r.Extracted != 2 || r.Failed != 1 || r.Missing != 1 {
		t.Fatalf("counts = %d/%d/%d/%d, want 4/2/1/1",
			r.Discovered, r.Extracted, r.Failed, r.Missing)
	}
	if r.Extracted+r.Failed+r.Missing != r.Discovered {
		t.Error("partition does not cover the discovered set")
	}
	if len(r.MissingURLs) != 1 || r.MissingURLs[0] != "https://regs.example/document/d" {
		t.Errorf("MissingURLs = %v", r.MissingURLs)
	}
	if len(r.FailuresByKind["not_found"]) != 1 {
		t.Errorf("FailuresByKind = %v", r.FailuresByKind)
	}
}

func TestReconcileExtractionIsAuthoritative(t *testing.T) {
	discovered := discoveredSet("https://regs.example/document/a")
	extracted := map[string]struct{}{"https://regs.example/document/a": {}}
	failures := map[string]model.FailedTarget{
		"https://regs.example/document/a": {URL: "https://regs.example/document/a", ErrorKind: "server_error"},
	}

	r := Reconcile(discovered, extracted, failures, defaultThresholds())

	if r.Extracted != 1 || r.Failed != 0 {
		t.Errorf("stale failure record must not shadow extraction: extracted=%d failed=%d",
			r.Extracted, r.Failed)
	}
}

func TestReconcileIgnoresRecordsOutsideDiscovery(t *testing.T) {
	discovered := discoveredSet("https://regs.example/document/a")
	extracted := map[string]struct{}{
		"https://regs.example/document/a":        {},
		"https://regs.example/document/imported": {},
	}

	r := Reconcile(discovered, extracted, nil, defaultThresholds())

	if r.Discovered != 1 || r.Extracted != 1 {
		t.Errorf("reconciliation must be scoped to discovered targets: %+v", r)
	}
}

func TestFullyAccountedCrawlIsExcellent(t *testing.T) {
	discovered := discoveredSet(
		"https://regs.example/document/a",
		"https://regs.example/document/b",
		"https://regs.example/document/c",
	)
	extracted := map[string]struct{}{
		"https://regs.example/document/a": {},
		"https://regs.example/document/b": {},
	}
	failures := map[string]model.FailedTarget{
		"https://regs.example/document/c": {URL: "https://regs.example/document/c", ErrorKind: "not_found"},
	}

	r := Reconcile(discovered, extracted, failures, defaultThresholds())

	// Every target has a definite outcome; a permanent failure is accounted
	// for even though it was not extracted.
	if r.Status != StatusExcellent {
		t.Errorf("Status = %s, want %s", r.Status, StatusExcellent)
	}
	if r.AccountedPercent() != 100 {
		t.Errorf("AccountedPercent = %.1f, want 100", r.AccountedPercent())
	}
	if got := r.CoveragePercent(); got < 66 || got > 67 {
		t.Errorf("CoveragePercent = %.1f, want ~66.7", got)
	}
}

func TestStatusBands(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		extracted int
		want      Status
	}{
		{"full coverage", 100, 100, StatusExcellent},
		{"at excellent threshold", 100, 95, StatusExcellent},
		{"at acceptable threshold", 100, 80, StatusAcceptable},
		{"below acceptable", 100, 79, StatusInsufficient},
		{"empty crawl", 0, 0, StatusExcellent},
	}
	for _, tt := range tests {
		urls := make([]string, tt.total)
		extracted := make(map[string]struct{})
		for i := 0; i < tt.total; i++ {
			u := fmt.Sprintf("https://regs.example/document/%d", i)
			urls[i] = u
			if i < tt.extracted {
				extracted[u] = struct{}{}
			}
		}
		r := Reconcile(discoveredSet(urls...), extracted, nil, defaultThresholds())
		if r.Status != tt.want {
			t.Errorf("%s: Status = %s, want %s", tt.name, r.Status, tt.want)
		}
	}
}

func TestWriteMarkdownRendersReport(t *testing.T) {
	discovered := discoveredSet(
		"https://regs.example/document/a",
		"https://regs.example/document/b",
		"https://regs.example/document/c",
	)
	extracted := map[string]struct{}{
		"https://regs.example/document/a": {},
		"https://regs.example/document/b": {},
	}
	failures := map[string]model.FailedTarget{
		"https://regs.example/document/c": {
			URL: "https://regs.example/document/c", ErrorKind: "not_found",
			AttemptCount: 1, LastError: "HTTP 404",
		},
	}

	r := Reconcile(discovered, extracted, failures, defaultThresholds())
	var buf strings.Builder
	if err := WriteMarkdown(&buf, r); err != nil {
		t.Fatalf("WriteMarkdown failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Coverage Report",
		"## Summary",
		"not_found",
		"https://regs.example/document/c",
		"HTTP 404",
		"regtrawl retry",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
}
