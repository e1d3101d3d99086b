// Package model defines the canonical record types shared by the discovery,
// extraction and coverage stages. All persisted records serialize to one JSON
// object per line in their respective stores.
package model

import "time"

// DiscoveredTarget is one leaf/section URL found during discovery.
// Unique by canonical URL; append-only once written.
type DiscoveredTarget struct {
	URL          string    `json:"canonical_url"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// FrontierEntry is a browse-page URL queued for a discovery fetch.
type FrontierEntry struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}

// Checkpoint is the durable snapshot of discovery progress. It is owned
// exclusively by the discovery engine and replaced atomically on each save.
type Checkpoint struct {
	Visited         []string        `json:"visited"`
	Frontier        []FrontierEntry `json:"frontier"`
	DiscoveredCount int             `json:"discovered_count"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Section is the canonical structured record for one extracted document.
// Hierarchy fields are pointers because not every document carries every
// level; a missing level is a typed absence, not an empty string.
type Section struct {
	TitleNumber    *int      `json:"title_number"`
	TitleName      *string   `json:"title_name"`
	Division       *string   `json:"division"`
	Chapter        *string   `json:"chapter"`
	Subchapter     *string   `json:"subchapter"`
	Article        *string   `json:"article"`
	SectionNumber  string    `json:"section_number"`
	SectionHeading string    `json:"section_heading"`
	Citation       string    `json:"citation"`
	BreadcrumbPath string    `json:"breadcrumb_path"`
	SourceURL      string    `json:"source_url"`
	Content        string    `json:"content"`
	RetrievedAt    time.Time `json:"retrieved_at"`
}

// FailedTarget records a URL whose extraction attempts were exhausted or
// failed terminally. A later successful Section for the same URL supersedes
// it; the entry itself is never deleted in place.
type FailedTarget struct {
	URL           string    `json:"canonical_url"`
	ErrorKind     string    `json:"error_kind"`
	AttemptCount  int       `json:"attempt_count"`
	LastError     string    `json:"last_error_message"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
}
