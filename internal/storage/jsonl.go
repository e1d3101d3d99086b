// Package storage persists crawl progress and results. The three durable
// stores (discovered targets, extracted sections, failed targets) are
// append-only files with one JSON object per line; the discovery checkpoint
// is a single JSON document replaced atomically. A single writer owns each
// open store; readers load complete snapshots from disk.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/takumif/regtrawl/internal/model"
)

// Lines can carry full document bodies, so readers need generous buffers.
const maxLineBytes = 16 << 20

// appendLog is an append-only JSONL file. Append is serialized and each
// record is synced to disk before returning, so a written record survives
// a crash on the next line boundary.
type appendLog struct {
	mu sync.Mutex
	f  *os.File
}

func openAppendLog(path string) (*appendLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &appendLog{f: f}, nil
}

func (l *appendLog) append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(data); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return l.f.Sync()
}

func (l *appendLog) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// readLines decodes every non-empty line of path into a fresh T and calls
// fn with it. A missing file is treated as an empty store.
func readLines[T any](path string, fn func(T)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open store %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("decode record in %s: %w", path, err)
		}
		fn(rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read store %s: %w", path, err)
	}
	return nil
}

// DiscoveredStore appends DiscoveredTarget records.
type DiscoveredStore struct {
	log *appendLog
}

// OpenDiscovered opens (creating if needed) the discovered-targets store.
func OpenDiscovered(path string) (*DiscoveredStore, error) {
	log, err := openAppendLog(path)
	if err != nil {
		return nil, err
	}
	return &DiscoveredStore{log: log}, nil
}

// Append writes one discovered target. Callers are responsible for
// canonical-URL uniqueness.
func (s *DiscoveredStore) Append(t model.DiscoveredTarget) error {
	return s.log.append(t)
}

// Close closes the underlying file.
func (s *DiscoveredStore) Close() error { return s.log.close() }

// LoadDiscovered reads all discovered targets, in file order.
// A missing file yields an empty slice.
func LoadDiscovered(path string) ([]model.DiscoveredTarget, error) {
	var out []model.DiscoveredTarget
	err := readLines(path, func(t model.DiscoveredTarget) { out = append(out, t) })
	return out, err
}

// SectionStore appends extracted Section records.
type SectionStore struct {
	log *appendLog
}

// OpenSections opens (creating if needed) the extracted-records store.
func OpenSections(path string) (*SectionStore, error) {
	log, err := openAppendLog(path)
	if err != nil {
		return nil, err
	}
	return &SectionStore{log: log}, nil
}

// Append writes one extracted section. Records are never mutated after
// creation; re-extraction of an already-stored URL must be skipped by the
// caller, which keeps the store idempotent under re-runs.
func (s *SectionStore) Append(sec model.Section) error {
	return s.log.append(sec)
}

// Close closes the underlying file.
func (s *SectionStore) Close() error { return s.log.close() }

// LoadSectionURLs reads the set of source URLs with an extracted record.
func LoadSectionURLs(path string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	err := readLines(path, func(sec model.Section) {
		out[sec.SourceURL] = struct{}{}
	})
	return out, err
}

// FailureStore appends FailedTarget records.
type FailureStore struct {
	log *appendLog
}

// OpenFailures opens (creating if needed) the failed-targets store.
func OpenFailures(path string) (*FailureStore, error) {
	log, err := openAppendLog(path)
	if err != nil {
		return nil, err
	}
	return &FailureStore{log: log}, nil
}

// Append writes one failure record. The store may hold several entries for
// the same URL across recovery passes; loaders keep the latest.
func (s *FailureStore) Append(t model.FailedTarget) error {
	return s.log.append(t)
}

// Close closes the underlying file.
func (s *FailureStore) Close() error { return s.log.close() }

// LoadFailures reads failure records keyed by canonical URL, keeping the
// most recent entry for each.
func LoadFailures(path string) (map[string]model.FailedTarget, error) {
	out := make(map[string]model.FailedTarget)
	err := readLines(path, func(t model.FailedTarget) { out[t.URL] = t })
	return out, err
}
