package cachestore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/faceguard/faceguard/internal/models"
	"github.com/faceguard/faceguard/internal/recognizer"
)

// localImageExts lists the raster formats accepted for local enrollment.
var localImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// EnrollLocal scans dir for photos and appends an enrollment for each one to
// the cache, using the file's base name (without extension) as the person
// name. A person already enrolled locally is not recomputed. Per-file
// failures are logged and skipped. Returns the number of enrollments added.
//
// Local enrollments have no user record: they bypass expiry and schedule
// checks and are never reported to the remote service.
func EnrollLocal(ctx context.Context, cache *models.Cache, dir string, provider recognizer.Provider) int {
	if dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read local users directory", "dir", dir, "error", err)
		}
		return 0
	}

	enrolled := make(map[string]bool)
	for _, e := range cache.Embeddings {
		if e.IsLocal {
			enrolled[e.PersonName] = true
		}
	}

	added := 0
	for _, entry := range entries {
		if entry.IsDir() || !localImageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if enrolled[name] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		imageBytes, err := os.ReadFile(path)
		if err != nil {
			slog.Error("Failed to read local photo", "path", path, "error", err)
			continue
		}
		vector, err := provider.Embed(ctx, imageBytes)
		if err != nil {
			slog.Error("Failed to embed local photo", "path", path, "error", err)
			continue
		}

		cache.Embeddings = append(cache.Embeddings, models.Enrollment{
			PersonName: name,
			Vector:     vector,
			ModelName:  provider.Name(),
			Filename:   entry.Name(),
			IsLocal:    true,
		})
		enrolled[name] = true
		added++
		slog.Info("Enrolled local user", "person", name, "file", entry.Name())
	}
	return added
}
