package main

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	maxLogSize  = 2 * 1024 * 1024
	keepLogSize = 1024 * 1024
)

// logFile appends to a file and trims it to its newest keepLogSize bytes
// whenever it grows past maxLogSize.
type logFile struct {
	mu   sync.Mutex
	file *os.File
}

func newLogFile(path string) (*logFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w := &logFile{file: f}
	if err := w.trim(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *logFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.trim()
}

func (w *logFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *logFile) trim() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSize {
		return nil
	}

	tail := make([]byte, keepLogSize)
	n, err := w.file.ReadAt(tail, size-keepLogSize)
	if err != nil && err != io.EOF {
		return err
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end after truncation.
	_, err = w.file.Write(tail[:n])
	return err
}
