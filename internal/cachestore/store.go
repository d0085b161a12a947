// Package cachestore persists the enrollment cache as a JSON snapshot and
// publishes it to readers through a single atomic pointer. Resyncs build a
// complete replacement cache off to the side and swap it in; the frame loop
// always sees a fully consistent snapshot and never blocks on a sync.
package cachestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/faceguard/faceguard/internal/models"
)

// Store owns the cache file and the in-memory snapshot pointer.
type Store struct {
	path    string
	current atomic.Pointer[models.Cache]
}

// New creates a store for the given snapshot path. Nothing is read until
// Load is called.
func New(path string) *Store {
	s := &Store{path: path}
	s.current.Store(models.NewCache())
	return s
}

// Load reads the persisted snapshot and makes it current. A missing file is
// not an error: it yields an empty, well-formed cache. A file that exists
// but cannot be parsed is an error — there is no safe default to run with,
// so the caller is expected to treat it as fatal at startup.
func (s *Store) Load() (*models.Cache, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		cache := models.NewCache()
		s.current.Store(cache)
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	cache := models.NewCache()
	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", s.path, err)
	}
	s.current.Store(cache)
	return cache, nil
}

// Save writes the snapshot to disk. The write goes to a temp file in the
// same directory followed by a rename, so a concurrent reader of the file
// never observes a partially written snapshot.
func (s *Store) Save(cache *models.Cache) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Current returns the in-memory snapshot. Never nil.
func (s *Store) Current() *models.Cache {
	return s.current.Load()
}

// Swap atomically publishes a replacement snapshot.
func (s *Store) Swap(cache *models.Cache) {
	s.current.Store(cache)
}
