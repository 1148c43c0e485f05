package corpus

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const (
	synonymSeparator = ";"
	commentPrefix    = "#"
)

// File is a corpus loaded from a text file. Each non-empty line is a row of
// synonyms separated by ";". Lines starting with "#" are ignored.
//
// File is safe for concurrent use; Reload and Watch swap the underlying
// matrix atomically.
type File struct {
	path string

	mu     sync.RWMutex
	matrix *Matrix
}

// LoadFile reads the corpus at path.
func LoadFile(path string) (*File, error) {
	f := &File{path: path}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the file backing the corpus.
func (f *File) Path() string {
	return f.path
}

// Reload re-reads the corpus file.
func (f *File) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("reading corpus %s: %w", f.path, err)
	}

	rows, err := ParseRows(data)
	if err != nil {
		return fmt.Errorf("parsing corpus %s: %w", f.path, err)
	}

	m := NewMatrix(rows)

	f.mu.Lock()
	f.matrix = m
	f.mu.Unlock()

	return nil
}

// Words returns the words of the current matrix.
func (f *File) Words() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.matrix.Words()
}

// Value returns the canonical value of word in the current matrix.
func (f *File) Value(word string, opts Options) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.matrix.Value(word, opts)
}

// Watch reloads the corpus whenever its file is written or recreated, until
// ctx is cancelled. Reload failures are logged and the previous vocabulary is
// kept.
func (f *File) Watch(ctx context.Context, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating corpus watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace files instead of writing them.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watching corpus dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := f.Reload(); err != nil {
				logger.Warn("corpus reload failed", "path", f.path, "error", err)
				continue
			}
			logger.Debug("corpus reloaded", "path", f.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("corpus watcher error: %w", err)
		}
	}
}

// ParseRows parses the text corpus format into rows of synonyms.
func ParseRows(data []byte) ([][]string, error) {
	var rows [][]string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		var row []string
		for _, synonym := range strings.Split(line, synonymSeparator) {
			synonym = strings.TrimSpace(synonym)
			if synonym != "" {
				row = append(row, synonym)
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rows, nil
}

var _ Corpus = (*File)(nil)
