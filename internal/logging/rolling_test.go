package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRollingWriterRotatesAtLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	w, err := NewRollingWriter(path, 32, 2)
	if err != nil {
		t.Fatalf("NewRollingWriter failed: %v", err)
	}
	defer w.Close()

	line := strings.Repeat("a", 20) + "\n"
	for i := 0; i < 3; i++ {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("active log file missing: %v", err)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("rotated backup missing: %v", err)
	}
}

func TestRollingWriterShiftsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	w, err := NewRollingWriter(path, 8, 2)
	if err != nil {
		t.Fatalf("NewRollingWriter failed: %v", err)
	}
	defer w.Close()

	// Each write forces a rotation of the previous contents.
	for _, s := range []string{"first....", "second...", "third...."} {
		if _, err := w.Write([]byte(s)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	for _, f := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected %s to exist: %v", f, err)
		}
	}
	if _, err := os.Stat(path + ".3"); err == nil {
		t.Error("backup chain exceeded maxBackups")
	}
}

func TestRollingWriterNoBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	w, err := NewRollingWriter(path, 8, 0)
	if err != nil {
		t.Fatalf("NewRollingWriter failed: %v", err)
	}
	defer w.Close()

	w.Write([]byte("aaaaaaaaa")) // over the limit on its own
	w.Write([]byte("bbb"))

	if _, err := os.Stat(path + ".1"); err == nil {
		t.Error("backup created with maxBackups = 0")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if string(data) != "bbb" {
		t.Errorf("log contents = %q, want %q", data, "bbb")
	}
}
