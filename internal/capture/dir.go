package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DirSource replays image files from a directory in a loop, one per
// interval. It stands in for a camera on development benches and in
// integration tests.
type DirSource struct {
	dir      string
	interval time.Duration
	files    []string
	next     int
}

// OpenDir lists the directory's images (sorted by name) and returns a
// source cycling over them.
func OpenDir(dir string, interval time.Duration) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files in %s", dir)
	}
	sort.Strings(files)
	return &DirSource{dir: dir, interval: interval, files: files}, nil
}

// NextFrame waits one interval and returns the next file's bytes.
func (s *DirSource) NextFrame(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.interval):
	}

	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)

	frame, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame file: %w", err)
	}
	return frame, nil
}

// Close implements FrameSource.
func (s *DirSource) Close() error { return nil }
