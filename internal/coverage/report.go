package coverage

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
)

const (
	maxFailuresListed = 10
	maxMissingListed  = 20
)

// WriteMarkdown renders a report as a Markdown document.
func WriteMarkdown(w io.Writer, r *Report) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, r)
	writeSummary(md, r)
	writeFailures(md, r)
	writeMissing(md, r)
	writeRecommendations(md, r)

	return md.Build()
}

func writeHeader(md *markdown.Markdown, r *Report) {
	md.H1("Coverage Report")
	md.PlainText("")
	md.PlainTextf("Generated: %s", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	md.PlainText("")
	md.PlainTextf("Overall status: **%s** (%.1f%% accounted for, %.1f%% extracted)",
		r.Status, r.AccountedPercent(), r.CoveragePercent())
	md.PlainText("")
}

func writeSummary(md *markdown.Markdown, r *Report) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Discovered targets", strconv.Itoa(r.Discovered)},
			{"Extracted", strconv.Itoa(r.Extracted)},
			{"Failed permanently", strconv.Itoa(r.Failed)},
			{"Missing (never attempted)", strconv.Itoa(r.Missing)},
		},
	})
	md.PlainText("")
}

func writeFailures(md *markdown.Markdown, r *Report) {
	if r.Failed == 0 {
		return
	}
	md.H2("Failures by error kind")
	md.PlainText("")

	kinds := make([]string, 0, len(r.FailuresByKind))
	for kind := range r.FailuresByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		fs := r.FailuresByKind[kind]
		md.H3f("%s (%d)", kind, len(fs))
		md.PlainText("")

		items := make([]string, 0, maxFailuresListed+1)
		for i, f := range fs {
			if i == maxFailuresListed {
				items = append(items, fmt.Sprintf("and %d more", len(fs)-maxFailuresListed))
				break
			}
			items = append(items, fmt.Sprintf("%s — %s (%d attempts)", f.URL, f.LastError, f.AttemptCount))
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}

func writeMissing(md *markdown.Markdown, r *Report) {
	if r.Missing == 0 {
		return
	}
	md.H2f("Missing targets (%d)", r.Missing)
	md.PlainText("")

	items := make([]string, 0, maxMissingListed+1)
	for i, u := range r.MissingURLs {
		if i == maxMissingListed {
			items = append(items, fmt.Sprintf("and %d more", r.Missing-maxMissingListed))
			break
		}
		items = append(items, u)
	}
	md.BulletList(items...)
	md.PlainText("")
}

func writeRecommendations(md *markdown.Markdown, r *Report) {
	md.H2("Recommendations")
	md.PlainText("")

	var recs []string
	if r.Missing > 0 {
		recs = append(recs, fmt.Sprintf("Run `regtrawl extract` to attempt the %d missing targets.", r.Missing))
	}
	if r.Failed > 0 {
		recs = append(recs, fmt.Sprintf("Run `regtrawl retry` to re-attempt the %d failed targets.", r.Failed))
	}
	if r.Status == StatusInsufficient {
		recs = append(recs, "Coverage is below the acceptable threshold; check connectivity and classification patterns before relying on this dataset.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Coverage is complete; no action needed.")
	}
	md.BulletList(recs...)
	md.PlainText("")
}
