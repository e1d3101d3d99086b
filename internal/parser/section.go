package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"

	"github.com/takumif/regtrawl/internal/model"
)

// ErrNoContent is returned when a page has neither a recognizable heading
// nor body content, i.e. it does not look like a section document at all.
var ErrNoContent = errors.New("no recognizable section content")

var (
	titleNumberRe = regexp.MustCompile(`(?i)Title\s+(\d+)`)

	// Tried in order; the bare-number fallback requires 3+ digits so that
	// hierarchy ordinals ("Chapter 2") do not masquerade as section numbers.
	sectionNumberRes = []*regexp.Regexp{
		regexp.MustCompile(`§\s*(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)Section\s+(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)sec\.\s*(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`\b(\d{3,}(?:\.\d+)?)\b`),
	}

	urlSectionNumberRe = regexp.MustCompile(`[/\-](\d{4,}(?:\.\d+)?)(?:[/?]|$)`)
)

// SectionParser parses leaf pages into canonical Section records.
// Safe for concurrent use.
type SectionParser struct {
	conv *converter.Converter
}

// NewSectionParser builds a parser with a CommonMark body converter.
func NewSectionParser() *SectionParser {
	return &SectionParser{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Parse extracts the breadcrumb hierarchy, section heading and identifier,
// synthesized citation, and Markdown body from a leaf page.
func (p *SectionParser) Parse(body []byte, sourceURL string) (*model.Section, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	sec := &model.Section{
		SourceURL:   sourceURL,
		RetrievedAt: time.Now().UTC(),
	}
	parseBreadcrumb(doc, sec)

	heading := findHeading(doc)
	sec.SectionHeading = strings.TrimSpace(heading.Text())

	content, err := p.extractContent(doc)
	if err != nil {
		return nil, err
	}
	if sec.SectionHeading == "" && content == "" {
		return nil, ErrNoContent
	}
	if sec.SectionHeading == "" {
		sec.SectionHeading = "Unknown"
	}
	sec.Content = content

	sec.SectionNumber = firstNonEmpty(
		matchSectionNumber(sec.SectionHeading),
		sectionNumberFromURL(sourceURL),
		matchSectionNumber(sec.BreadcrumbPath),
		"unknown",
	)
	sec.Citation = buildCitation(sec.TitleNumber, sec.SectionNumber)

	return sec, nil
}

// parseBreadcrumb locates the breadcrumb trail and splits it into the named
// hierarchy fields. Absent levels stay nil.
func parseBreadcrumb(doc *goquery.Document, sec *model.Section) {
	bc := doc.Find(`nav[class*="breadcrumb"], ol[class*="breadcrumb"], div[class*="breadcrumb"], nav[class*="navigation"]`).First()
	if bc.Length() == 0 {
		return
	}

	var parts []string
	items := bc.Find("li")
	if items.Length() == 0 {
		items = bc.Find("a")
	}
	items.Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		if text := strings.TrimSpace(bc.Text()); text != "" {
			parts = []string{text}
		}
	}
	sec.BreadcrumbPath = strings.Join(parts, " > ")

	if m := titleNumberRe.FindStringSubmatch(sec.BreadcrumbPath); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			sec.TitleNumber = &n
		}
	}

	for _, part := range parts {
		p := part
		switch {
		// "subchapter" must be checked before "chapter".
		case containsFold(p, "subchapter"):
			sec.Subchapter = &p
		case containsFold(p, "chapter"):
			sec.Chapter = &p
		case containsFold(p, "title"):
			sec.TitleName = &p
		case containsFold(p, "division"):
			sec.Division = &p
		case containsFold(p, "article"):
			sec.Article = &p
		}
	}
}

func findHeading(doc *goquery.Document) *goquery.Selection {
	h := doc.Find(`h1[class*="section"], h1[class*="heading"], h1[class*="title"], h2[class*="section"], h2[class*="heading"], h2[class*="title"]`).First()
	if h.Length() == 0 {
		h = doc.Find("h1, h2").First()
	}
	return h
}

// extractContent finds the main content container, strips chrome elements,
// and converts the remaining markup to Markdown.
func (p *SectionParser) extractContent(doc *goquery.Document) (string, error) {
	container := doc.Find(`div[class*="content"], div[class*="body"], div[class*="section-content"]`).First()
	if container.Length() == 0 {
		container = doc.Find("main, article").First()
	}
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}
	if container.Length() == 0 {
		return "", nil
	}

	container.Find("script, style, nav, header, footer").Remove()

	rawHTML, err := goquery.OuterHtml(container)
	if err != nil {
		return "", fmt.Errorf("render content html: %w", err)
	}

	md, err := p.conv.ConvertString(rawHTML)
	if err != nil {
		return "", fmt.Errorf("convert content to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func matchSectionNumber(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range sectionNumberRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func sectionNumberFromURL(rawURL string) string {
	if m := urlSectionNumberRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// buildCitation synthesizes the standard citation, e.g. "17 CCR § 1234".
func buildCitation(titleNumber *int, sectionNumber string) string {
	switch {
	case titleNumber != nil && sectionNumber != "unknown":
		return fmt.Sprintf("%d CCR § %s", *titleNumber, sectionNumber)
	case sectionNumber != "unknown":
		return fmt.Sprintf("CCR § %s", sectionNumber)
	default:
		return "CCR (unknown section)"
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
