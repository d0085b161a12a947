// Package syncer coordinates the device with the remote service: it pulls
// the catalog, re-derives embeddings locally, swaps the cache atomically,
// and reports access events without ever blocking the decision loop.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/faceguard/faceguard/internal/cachestore"
	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/journal"
	"github.com/faceguard/faceguard/internal/metrics"
	"github.com/faceguard/faceguard/internal/models"
	"github.com/faceguard/faceguard/internal/recognizer"
)

// reportTimeout bounds the detached event post so a dead link cannot pile
// up goroutines.
const reportTimeout = 10 * time.Second

// API is the remote service surface the coordinator needs. *remote.Client
// implements it; tests substitute fakes.
type API interface {
	FetchCatalog(ctx context.Context) (*models.Cache, error)
	FetchPhoto(ctx context.Context, url string) ([]byte, error)
	PostEvent(ctx context.Context, event models.AccessEvent) error
}

// Coordinator owns all writes to the cache store. Resync and local
// re-enrollment serialize on its mutex; readers are never blocked because
// publication is a single pointer swap.
type Coordinator struct {
	api      API
	provider recognizer.Provider
	store    *cachestore.Store
	journal  *journal.Journal // optional
	live     *config.Live
	localDir string

	mu sync.Mutex
	wg sync.WaitGroup
}

// New creates a coordinator. journal may be nil, in which case events are
// posted without a local audit copy.
func New(api API, provider recognizer.Provider, store *cachestore.Store, jrnl *journal.Journal, live *config.Live, localDir string) *Coordinator {
	return &Coordinator{
		api:      api,
		provider: provider,
		store:    store,
		journal:  jrnl,
		live:     live,
		localDir: localDir,
	}
}

// Resync pulls the remote catalog, rebuilds every embedding from the photo
// bytes, merges local enrollments, and atomically replaces the cache. A
// catalog fetch failure leaves the previous cache fully intact; per-photo
// failures only skip that photo. Config overrides take effect only after
// the whole resync has succeeded.
func (c *Coordinator) Resync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	fresh, err := c.api.FetchCatalog(ctx)
	if err != nil {
		metrics.Syncs.WithLabelValues("error").Inc()
		return fmt.Errorf("resync aborted: %w", err)
	}

	for _, photo := range fresh.Photos {
		imageBytes, err := c.api.FetchPhoto(ctx, photo.URL)
		if err != nil {
			slog.Error("Failed to fetch photo, skipping",
				"file", photo.Filename, "url", photo.URL, "error", err)
			continue
		}
		vector, err := c.provider.Embed(ctx, imageBytes)
		if err != nil {
			slog.Error("Failed to embed photo, skipping",
				"file", photo.Filename, "person", photo.PersonName, "error", err)
			continue
		}
		fresh.Embeddings = append(fresh.Embeddings, models.Enrollment{
			UserID:     photo.UserID,
			PersonName: photo.PersonName,
			Vector:     vector,
			ModelName:  c.provider.Name(),
			Filename:   photo.Filename,
		})
	}

	cachestore.EnrollLocal(ctx, fresh, c.localDir, c.provider)

	c.store.Swap(fresh)
	if err := c.store.Save(fresh); err != nil {
		// The in-memory swap already happened; a persist failure only
		// costs warm-start coverage after a crash.
		slog.Warn("Failed to persist cache snapshot", "error", err)
	}
	c.live.Apply(fresh.Config)

	metrics.Syncs.WithLabelValues("ok").Inc()
	metrics.SyncDuration.Observe(time.Since(start).Seconds())
	slog.Info("Cache refreshed",
		"photos", len(fresh.Photos),
		"embeddings", len(fresh.Embeddings),
		"users", len(fresh.Users),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// ReloadLocal re-scans the local photo directory against the current cache
// and publishes an extended snapshot if anything new was enrolled. Called
// at startup and when the directory changes.
func (c *Coordinator) ReloadLocal(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := c.store.Current().Clone()
	if added := cachestore.EnrollLocal(ctx, fresh, c.localDir, c.provider); added == 0 {
		return
	}
	c.store.Swap(fresh)
	if err := c.store.Save(fresh); err != nil {
		slog.Warn("Failed to persist cache snapshot", "error", err)
	}
}

// Report journals the event and posts it upstream from a detached
// goroutine. Post failures are logged, never retried here, and never reach
// the decision path; the drainer picks up whatever the journal still holds.
func (c *Coordinator) Report(event models.AccessEvent) {
	if c.journal != nil {
		stored, err := c.journal.Append(context.Background(), event)
		if err != nil {
			slog.Warn("Failed to journal event", "error", err)
		} else {
			event = stored
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := c.api.PostEvent(ctx, event); err != nil {
			slog.Warn("Failed to push event", "identifier", event.Identifier, "error", err)
			return
		}
		metrics.EventsReported.Inc()
		if c.journal != nil && event.ID != "" {
			if err := c.journal.MarkReported(context.Background(), event.ID); err != nil {
				slog.Warn("Failed to mark event reported", "error", err)
			}
		}
	}()
}

// Drain posts journaled events that never reached the remote service,
// oldest first, stopping at the first failure (the link is probably down).
func (c *Coordinator) Drain(ctx context.Context) {
	if c.journal == nil {
		return
	}
	events, err := c.journal.Unreported(ctx, 50)
	if err != nil {
		slog.Warn("Failed to read unreported events", "error", err)
		return
	}
	for _, event := range events {
		if err := c.api.PostEvent(ctx, event); err != nil {
			slog.Debug("Event drain stopped", "error", err)
			return
		}
		metrics.EventsReported.Inc()
		if err := c.journal.MarkReported(ctx, event.ID); err != nil {
			slog.Warn("Failed to mark event reported", "error", err)
			return
		}
	}
	if len(events) > 0 {
		slog.Info("Drained journaled events", "count", len(events))
	}
}

// Wait blocks until all detached report goroutines finish. Used on
// shutdown and in tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
