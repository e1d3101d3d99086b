// Package config provides configuration management for the crawl pipeline.
// It defines the configuration structure, defaults and validation for both
// crawl stages and the coverage reconciler.
package config

import (
	"path/filepath"
	"time"
)

// Config holds the full pipeline configuration.
type Config struct {
	// Discovery parameters
	SeedURLs           []string `mapstructure:"seed_urls" yaml:"seed_urls"`                     // Starting browse pages
	MaxPages           int      `mapstructure:"max_pages" yaml:"max_pages"`                     // Stop after visiting N browse pages (0=unlimited)
	MaxSections        int      `mapstructure:"max_sections" yaml:"max_sections"`               // Stop after discovering N section URLs (0=unlimited)
	CheckpointInterval int      `mapstructure:"checkpoint_interval" yaml:"checkpoint_interval"` // Persist a checkpoint every N discovered URLs

	// URL classification
	SectionPatterns []string `mapstructure:"section_patterns" yaml:"section_patterns"` // Regexes matching leaf/section URLs
	BrowsePatterns  []string `mapstructure:"browse_patterns" yaml:"browse_patterns"`   // Regexes matching browse/TOC URLs

	// Politeness
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`         // Global bound on in-flight requests
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"`     // Minimum spacing between requests
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // HTTP request timeout
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header

	// Extraction retry policy
	MaxRetries     int           `mapstructure:"max_retries" yaml:"max_retries"`           // Attempts per URL before a terminal failure
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"` // Backoff base (doubled per attempt)
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay" yaml:"retry_max_delay"`   // Backoff cap

	// Coverage thresholds (percentages)
	CoverageExcellent  float64 `mapstructure:"coverage_excellent" yaml:"coverage_excellent"`
	CoverageAcceptable float64 `mapstructure:"coverage_acceptable" yaml:"coverage_acceptable"`

	// Storage
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"` // Directory for stores, checkpoint and report

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a configuration with default values tuned for the
// calregs site.
func DefaultConfig() *Config {
	return &Config{
		SeedURLs:           []string{"https://govt.westlaw.com/calregs"},
		CheckpointInterval: 50,
		SectionPatterns:    []string{`(?i)/calregs/document/`},
		BrowsePatterns:     []string{`(?i)/calregs/browse/`, `(?i)[?&]guid=`},
		Concurrency:        3,
		RequestDelay:       1500 * time.Millisecond,
		RequestTimeout:     45 * time.Second,
		UserAgent:          "regtrawl/1.0",
		MaxRetries:         5,
		RetryBaseDelay:     time.Second,
		RetryMaxDelay:      16 * time.Second,
		CoverageExcellent:  95,
		CoverageAcceptable: 80,
		DataDir:            "./data",
		LogLevel:           "info",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	// Enforce a minimum politeness delay.
	if c.RequestDelay < 100*time.Millisecond {
		c.RequestDelay = 100 * time.Millisecond
	}
	if c.MaxRetries <= 0 {
		return ErrInvalidRetries
	}
	if c.RetryBaseDelay <= 0 || c.RetryMaxDelay < c.RetryBaseDelay {
		return ErrInvalidBackoff
	}
	if c.CoverageExcellent < c.CoverageAcceptable ||
		c.CoverageAcceptable < 0 || c.CoverageExcellent > 100 {
		return ErrInvalidThresholds
	}
	if c.DataDir == "" {
		return ErrEmptyDataDir
	}
	return nil
}

// DiscoveredPath is the discovered-targets store location.
func (c *Config) DiscoveredPath() string {
	return filepath.Join(c.DataDir, "discovered_targets.jsonl")
}

// SectionsPath is the extracted-records store location.
func (c *Config) SectionsPath() string {
	return filepath.Join(c.DataDir, "extracted_sections.jsonl")
}

// FailedPath is the failed-targets store location.
func (c *Config) FailedPath() string {
	return filepath.Join(c.DataDir, "failed_targets.jsonl")
}

// CheckpointPath is the discovery checkpoint snapshot location.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.DataDir, "discovery_checkpoint.json")
}

// ReportPath is the rendered coverage report location.
func (c *Config) ReportPath() string {
	return filepath.Join(c.DataDir, "coverage_report.md")
}
