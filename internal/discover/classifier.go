package discover

import (
	"fmt"
	"regexp"
)

// LinkKind is the classification of an outgoing link.
type LinkKind int

const (
	// LinkOther is a link that is neither a browse page nor a section.
	LinkOther LinkKind = iota
	// LinkBrowse is a table-of-contents/category page to enqueue.
	LinkBrowse
	// LinkSection is a leaf document to record as a discovered target.
	LinkSection
)

// Classifier decides whether a canonical URL is a browse page or a leaf
// section using a fixed set of URL-pattern rules.
type Classifier struct {
	section []*regexp.Regexp
	browse  []*regexp.Regexp
}

// NewClassifier compiles the given pattern sets.
func NewClassifier(sectionPatterns, browsePatterns []string) (*Classifier, error) {
	section, err := compilePatterns(sectionPatterns)
	if err != nil {
		return nil, fmt.Errorf("section patterns: %w", err)
	}
	browse, err := compilePatterns(browsePatterns)
	if err != nil {
		return nil, fmt.Errorf("browse patterns: %w", err)
	}
	return &Classifier{section: section, browse: browse}, nil
}

// Classify returns the kind of canonicalURL. Section rules win over browse
// rules: a document link carrying browse-ish query parameters is still a
// section.
func (c *Classifier) Classify(canonicalURL string) LinkKind {
	for _, re := range c.section {
		if re.MatchString(canonicalURL) {
			return LinkSection
		}
	}
	for _, re := range c.browse {
		if re.MatchString(canonicalURL) {
			return LinkBrowse
		}
	}
	return LinkOther
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
