// Command faceguardd is the edge access-control daemon: it samples a video
// source, matches face embeddings against the locally cached enrollments,
// pulses the door release on a positive decision, and keeps the cache in
// sync with the remote service over an intermittent link.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/faceguard/faceguard/internal/cachestore"
	"github.com/faceguard/faceguard/internal/capture"
	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/engine"
	"github.com/faceguard/faceguard/internal/hardware"
	"github.com/faceguard/faceguard/internal/journal"
	"github.com/faceguard/faceguard/internal/metrics"
	"github.com/faceguard/faceguard/internal/recognizer"
	"github.com/faceguard/faceguard/internal/remote"
	"github.com/faceguard/faceguard/internal/syncer"
	"github.com/faceguard/faceguard/pkg/logging"
)

func main() {
	logging.Setup()

	cfg := config.FromEnv()
	live := config.NewLive(cfg)

	// Resolve the active recognizer once; later entries are fallbacks.
	registry := recognizer.NewRegistry()
	registry.Register("insightface", func() (recognizer.Provider, error) {
		return recognizer.NewService("insightface", cfg.EmbedServiceURL, cfg.HTTPTimeout)
	})
	registry.Register("facenet", func() (recognizer.Provider, error) {
		return recognizer.NewService("facenet", cfg.EmbedServiceURL, cfg.HTTPTimeout)
	})
	registry.Register("hashed", func() (recognizer.Provider, error) {
		return recognizer.NewHashed(), nil
	})
	provider, err := registry.Resolve(cfg.ModelPriority)
	if err != nil {
		slog.Error("No recognizer available", "error", err)
		os.Exit(1)
	}

	store := cachestore.New(cfg.CachePath)
	if _, err := store.Load(); err != nil {
		// An unreadable cache file is the one fatal startup case: there
		// is no safe enrollment set to run with.
		slog.Error("Failed to load cache", "error", err)
		os.Exit(1)
	}
	slog.Info("Cache loaded",
		"path", cfg.CachePath,
		"embeddings", len(store.Current().Embeddings),
		"users", len(store.Current().Users))

	jrnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		slog.Error("Failed to open event journal", "error", err)
		os.Exit(1)
	}
	defer jrnl.Close()

	trigger := hardware.Detect(cfg.GPIOChip, cfg.GPIOPin, live.GPIOPulse)
	defer func() {
		if err := trigger.Cleanup(); err != nil {
			slog.Warn("Hardware cleanup failed", "error", err)
		}
	}()

	client := remote.New(cfg.APIBaseURL, cfg.DeviceID, cfg.Token, cfg.DeviceSecret, cfg.HTTPTimeout)
	coordinator := syncer.New(client, provider, store, jrnl, live, cfg.LocalUsersDir)
	defer coordinator.Wait()

	eng := engine.New(engine.Config{
		Provider:               provider,
		Cache:                  store,
		Trigger:                trigger,
		Reporter:               coordinator,
		Live:                   live,
		DeviceID:               cfg.DeviceID,
		Cooldown:               cfg.Cooldown,
		MaxConsecutiveTriggers: cfg.MaxConsecutiveTriggers,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Offline users work before the first successful sync.
	coordinator.ReloadLocal(ctx)
	if err := coordinator.Resync(ctx); err != nil {
		slog.Warn("Initial sync failed, using cached snapshot", "error", err)
	}

	if cfg.ExitButtonPin >= 0 {
		button, err := hardware.NewExitButton(cfg.GPIOChip, cfg.ExitButtonPin, cfg.ExitButtonDebounce, func() {
			eng.ManualUnlock(context.Background())
		})
		if err != nil {
			slog.Warn("Exit button unavailable", "error", err)
		} else {
			defer button.Close()
		}
	}

	source := frameSource(cfg)
	defer source.Close()

	g, ctx := errgroup.WithContext(ctx)

	var uploader *remote.Client
	if cfg.UploadUnmatched {
		uploader = client
	}

	g.Go(func() error { return frameLoop(ctx, cfg, source, eng, uploader) })
	g.Go(func() error { return syncLoop(ctx, live, coordinator) })
	g.Go(func() error { return drainLoop(ctx, cfg, coordinator) })
	g.Go(func() error { return pruneLoop(ctx, cfg, jrnl) })
	g.Go(func() error {
		return cachestore.Watch(ctx, cfg.LocalUsersDir, func() {
			coordinator.ReloadLocal(context.Background())
		})
	})
	g.Go(func() error { return metricsServer(ctx, cfg.MetricsAddr) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Daemon stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Daemon stopped")
}

// frameSource picks the configured supply: a live MJPEG stream, or the
// directory simulator when no camera is configured.
func frameSource(cfg config.Config) capture.FrameSource {
	if cfg.StreamURL != "" {
		return capture.NewReconnecting(func(ctx context.Context) (capture.FrameSource, error) {
			return capture.OpenMJPEG(ctx, cfg.StreamURL)
		})
	}
	return capture.NewReconnecting(func(ctx context.Context) (capture.FrameSource, error) {
		return capture.OpenDir(cfg.FramesDir, cfg.FrameInterval)
	})
}

// frameLoop drives one decision per captured frame. With an uploader set,
// frames holding an unrecognized face are pushed upstream for operator
// review, rate-limited so a stranger at the door does not flood the link.
func frameLoop(ctx context.Context, cfg config.Config, source capture.FrameSource, eng *engine.Engine, uploader *remote.Client) error {
	var lastUpload time.Time
	for {
		frame, err := source.NextFrame(ctx)
		if err != nil {
			return err // only on ctx cancellation
		}
		decision := eng.Process(ctx, frame)

		if uploader != nil && decision.Has(engine.ReasonNoMatch) &&
			time.Since(lastUpload) >= cfg.UploadMinInterval {
			lastUpload = time.Now()
			go func(frame []byte) {
				uploadCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
				defer cancel()
				if err := uploader.UploadCapture(uploadCtx, "unknown", frame); err != nil {
					slog.Debug("Capture upload failed", "error", err)
				}
			}(frame)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.FrameInterval):
		}
	}
}

// syncLoop resyncs on a timer, re-reading the interval each round so a
// remote override takes effect on the next tick.
func syncLoop(ctx context.Context, live *config.Live, coordinator *syncer.Coordinator) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(live.SyncInterval()):
		}
		if err := coordinator.Resync(ctx); err != nil {
			slog.Warn("Sync failed, keeping previous cache", "error", err)
		}
	}
}

// drainLoop re-posts journaled events that never reached the server.
func drainLoop(ctx context.Context, cfg config.Config, coordinator *syncer.Coordinator) error {
	ticker := time.NewTicker(cfg.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			coordinator.Drain(ctx)
		}
	}
}

// pruneLoop keeps the journal bounded by dropping reported events past the
// retention window.
func pruneLoop(ctx context.Context, cfg config.Config, jrnl *journal.Journal) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := jrnl.Prune(ctx, cfg.JournalRetention); err != nil {
				slog.Warn("Journal prune failed", "error", err)
			} else if n > 0 {
				slog.Debug("Journal pruned", "events", n)
			}
		}
	}
}

// metricsServer exposes Prometheus metrics until ctx is cancelled.
func metricsServer(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("Metrics listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
