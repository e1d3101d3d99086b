package parser

import (
	"errors"
	"strings"
	"testing"
)

const sectionPage = `
<!DOCTYPE html>
<html>
<head><title>§ 1234. Reporting Requirements.</title></head>
<body>
	<nav class="co_breadcrumb">
		<ol>
			<li><a href="/calregs">Title 17. Public Health</a></li>
			<li><a href="/calregs/d1">Division 1. State Department of Health Services</a></li>
			<li><a href="/calregs/c4">Chapter 4. Preventive Medical Services</a></li>
			<li><a href="/calregs/sc1">Subchapter 1. Reportable Diseases</a></li>
			<li><a href="/calregs/a3">Article 3. Reporting</a></li>
		</ol>
	</nav>
	<h1 class="co_sectionTitle">§ 1234. Reporting Requirements.</h1>
	<div class="co_contentBlock">
		<script>trackPageView();</script>
		<p>Each health care provider shall report the following:</p>
		<ul><li>Diagnosed cases</li><li>Suspected cases</li></ul>
	</div>
	<footer>Copyright</footer>
</body>
</html>
`

func TestParseSection(t *testing.T) {
	p := NewSectionParser()

	sec, err := p.Parse([]byte(sectionPage), "https://govt.westlaw.com/calregs/Document/ABC")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if sec.TitleNumber == nil || *sec.TitleNumber != 17 {
		t.Errorf("TitleNumber = %v, want 17", sec.TitleNumber)
	}
	if sec.TitleName == nil || !strings.Contains(*sec.TitleName, "Public Health") {
		t.Errorf("TitleName = %v, want Title 17 name", sec.TitleName)
	}
	if sec.Division == nil || !strings.Contains(*sec.Division, "Division 1") {
		t.Errorf("Division = %v", sec.Division)
	}
	if sec.Chapter == nil || !strings.Contains(*sec.Chapter, "Chapter 4") {
		t.Errorf("Chapter = %v", sec.Chapter)
	}
	if sec.Subchapter == nil || !strings.Contains(*sec.Subchapter, "Subchapter 1") {
		t.Errorf("Subchapter = %v; must not be swallowed by the chapter rule", sec.Subchapter)
	}
	if sec.Article == nil || !strings.Contains(*sec.Article, "Article 3") {
		t.Errorf("Article = %v", sec.Article)
	}

	if sec.SectionNumber != "1234" {
		t.Errorf("SectionNumber = %q, want 1234", sec.SectionNumber)
	}
	if !strings.Contains(sec.SectionHeading, "Reporting Requirements") {
		t.Errorf("SectionHeading = %q", sec.SectionHeading)
	}
	if sec.Citation != "17 CCR § 1234" {
		t.Errorf("Citation = %q, want %q", sec.Citation, "17 CCR § 1234")
	}
	if !strings.Contains(sec.BreadcrumbPath, "Title 17") || !strings.Contains(sec.BreadcrumbPath, " > ") {
		t.Errorf("BreadcrumbPath = %q", sec.BreadcrumbPath)
	}

	if !strings.Contains(sec.Content, "health care provider") {
		t.Errorf("Content missing body text: %q", sec.Content)
	}
	if strings.Contains(sec.Content, "trackPageView") {
		t.Error("Content must not include script text")
	}
	if strings.Contains(sec.Content, "Copyright") {
		t.Error("Content must not include footer chrome")
	}
	// List markup should survive as Markdown.
	if !strings.Contains(sec.Content, "- Diagnosed cases") && !strings.Contains(sec.Content, "* Diagnosed cases") {
		t.Errorf("Content lost list items: %q", sec.Content)
	}
}

func TestParseSectionMissingLevels(t *testing.T) {
	page := `
<html><body>
	<h2>Section 400.5. Definitions.</h2>
	<main><p>Terms used in this part.</p></main>
</body></html>
`
	p := NewSectionParser()

	sec, err := p.Parse([]byte(page), "https://govt.westlaw.com/calregs/Document/DEF")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if sec.TitleNumber != nil || sec.Division != nil || sec.Chapter != nil || sec.Subchapter != nil || sec.Article != nil {
		t.Errorf("expected absent hierarchy levels to stay nil: %+v", sec)
	}
	if sec.SectionNumber != "400.5" {
		t.Errorf("SectionNumber = %q, want 400.5", sec.SectionNumber)
	}
	if sec.Citation != "CCR § 400.5" {
		t.Errorf("Citation = %q", sec.Citation)
	}
	if sec.BreadcrumbPath != "" {
		t.Errorf("BreadcrumbPath = %q, want empty", sec.BreadcrumbPath)
	}
}

func TestParseSectionNumberFromURL(t *testing.T) {
	page := `<html><body><h1>Definitions</h1><main><p>body</p></main></body></html>`
	p := NewSectionParser()

	sec, err := p.Parse([]byte(page), "https://example.com/calregs/doc-10500/view")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if sec.SectionNumber != "10500" {
		t.Errorf("SectionNumber = %q, want 10500 (from URL)", sec.SectionNumber)
	}
}

func TestParseSectionNoContent(t *testing.T) {
	p := NewSectionParser()

	_, err := p.Parse([]byte("<html><head></head><body></body></html>"), "https://example.com/empty")
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("err = %v, want ErrNoContent", err)
	}
}
