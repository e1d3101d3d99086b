package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// RollingWriter is an io.WriteCloser that rotates its file once it would
// exceed maxBytes. Backups are kept as <path>.1 (newest) through
// <path>.<maxBackups> (oldest).
type RollingWriter struct {
	mu         sync.Mutex
	path       string
	maxBytes   int64
	maxBackups int
	file       *os.File
	written    int64
}

// NewRollingWriter opens path for appending, rotating at maxBytes.
// maxBackups <= 0 keeps no backups: the file is simply truncated.
func NewRollingWriter(path string, maxBytes int64, maxBackups int) (*RollingWriter, error) {
	w := &RollingWriter{path: path, maxBytes: maxBytes, maxBackups: maxBackups}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RollingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.file = f
	w.written = info.Size()
	return nil
}

func (w *RollingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxBytes > 0 && w.written+int64(len(p)) > w.maxBytes {
		if err := w.roll(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// Close closes the current file.
func (w *RollingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// roll shifts the backup chain up by one and starts a fresh file.
func (w *RollingWriter) roll() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	if w.maxBackups > 0 {
		_ = os.Remove(w.backup(w.maxBackups))
		for i := w.maxBackups - 1; i >= 1; i-- {
			if _, err := os.Stat(w.backup(i)); err == nil {
				if err := os.Rename(w.backup(i), w.backup(i+1)); err != nil {
					return err
				}
			}
		}
		if err := os.Rename(w.path, w.backup(1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	} else if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return w.open()
}

func (w *RollingWriter) backup(index int) string {
	return fmt.Sprintf("%s.%d", w.path, index)
}

var _ io.WriteCloser = (*RollingWriter)(nil)
