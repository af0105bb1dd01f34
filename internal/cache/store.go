// Package cache stores rendered transcript pages on the local filesystem,
// one file per video.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/tubetext/tubetext/internal/transcript"
)

const pageExt = ".html"

var (
	// ErrNotFound is returned by Read when a page is absent or cannot be read.
	ErrNotFound = errors.New("cached page not found")
	// ErrInvalidKey is returned for identifiers outside the safe key alphabet.
	ErrInvalidKey = errors.New("invalid cache key")
)

// WriteError reports a failed page write. Callers treat it as non-fatal.
type WriteError struct {
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache write for %s failed: %v", e.ID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Store maps video identifiers to page files under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore returns a Store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// path derives the file name for id. The key alphabet is [A-Za-z0-9_-], so the
// mapping is collision-free and cannot escape the cache directory.
func (s *Store) path(id string) (string, error) {
	if !transcript.ValidVideoID(id) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, id+pageExt), nil
}

// Exists reports whether a page is stored for id. Stat errors count as absent.
func (s *Store) Exists(id string) bool {
	p, err := s.path(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache stat failed", "video_id", id, "error", err)
		}
		return false
	}
	return info.Mode().IsRegular()
}

// Read returns the stored page for id. Every failure is reported as ErrNotFound.
func (s *Store) Read(id string) ([]byte, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return data, nil
}

// Write stores page under id, replacing any existing file atomically.
func (s *Store) Write(id string, page []byte) error {
	p, err := s.path(id)
	if err != nil {
		return &WriteError{ID: id, Err: err}
	}
	if err := renameio.WriteFile(p, page, 0644); err != nil {
		return &WriteError{ID: id, Err: err}
	}
	return nil
}

// Count returns the number of stored pages.
func (s *Store) Count() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == pageExt {
			n++
		}
	}
	return n, nil
}
