package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/takumif/regtrawl/internal/model"
)

func TestCheckpointSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints", "discovery.json")
	store := NewCheckpointStore(path)

	cp := &model.Checkpoint{
		Visited: []string{
			"https://example.com/browse/a",
			"https://example.com/browse/b",
		},
		Frontier: []model.FrontierEntry{
			{URL: "https://example.com/browse/c", Depth: 2},
		},
		DiscoveredCount: 7,
		Timestamp:       time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(cp); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil for existing checkpoint")
	}
	if len(got.Visited) != 2 || len(got.Frontier) != 1 || got.DiscoveredCount != 7 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Frontier[0].Depth != 2 {
		t.Errorf("frontier depth = %d, want 2", got.Frontier[0].Depth)
	}
}

func TestCheckpointLoadMissing(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "none.json"))

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil checkpoint, got %+v", got)
	}
}

func TestCheckpointSaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "discovery.json")
	store := NewCheckpointStore(path)

	if err := store.Save(&model.Checkpoint{DiscoveredCount: 1}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(&model.Checkpoint{DiscoveredCount: 2}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.DiscoveredCount != 2 {
		t.Errorf("DiscoveredCount = %d, want 2", got.DiscoveredCount)
	}

	// No temp files may survive a successful save.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
