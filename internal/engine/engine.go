// Package engine implements the access decision pipeline: a fixed sequence
// of gates that turns a captured frame into an allow/deny decision and at
// most one hardware trigger. Gate order is part of the contract — cheap
// gates run first and short-circuit the expensive embedding step.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/hardware"
	"github.com/faceguard/faceguard/internal/matcher"
	"github.com/faceguard/faceguard/internal/metrics"
	"github.com/faceguard/faceguard/internal/models"
	"github.com/faceguard/faceguard/internal/recognizer"
)

// noFaceResetWindow is how long the frame must stay empty after a trigger
// before the consecutive-trigger counter resets. It separates "the person
// walked away" from momentary detection dropouts.
const noFaceResetWindow = 2 * time.Second

// Clock abstracts time for tests.
type Clock func() time.Time

// Reporter receives access events. Implementations must not block the
// caller on network I/O.
type Reporter interface {
	Report(event models.AccessEvent)
}

// CacheSource yields the current enrollment snapshot.
type CacheSource interface {
	Current() *models.Cache
}

// Config wires an Engine.
type Config struct {
	Provider recognizer.Provider
	Cache    CacheSource
	Trigger  hardware.Trigger
	Reporter Reporter // optional; nil disables event emission
	Live     *config.Live
	DeviceID string

	// Cooldown is the minimum spacing between hardware pulses. Zero means
	// the 5s default.
	Cooldown time.Duration

	// MaxConsecutiveTriggers caps repeated triggers while a subject stays
	// in frame. Zero means the default of 3.
	MaxConsecutiveTriggers int

	// Now overrides the clock in tests.
	Now Clock
}

// Engine evaluates frames. All decision state lives here, in memory only;
// it resets to zero on process restart.
type Engine struct {
	provider recognizer.Provider
	detector recognizer.FaceDetector // nil if the provider has no fast path
	cache    CacheSource
	trigger  hardware.Trigger
	reporter Reporter
	live     *config.Live
	deviceID string

	cooldown       time.Duration
	maxConsecutive int
	now            Clock

	mu          sync.Mutex
	lastTrigger time.Time
	lastNoFace  time.Time
	consecutive int
}

// New creates an Engine. The provider's optional face-detection fast path
// is resolved here, once; providers without it leave the presence gate
// failing open.
func New(cfg Config) *Engine {
	e := &Engine{
		provider:       cfg.Provider,
		cache:          cfg.Cache,
		trigger:        cfg.Trigger,
		reporter:       cfg.Reporter,
		live:           cfg.Live,
		deviceID:       cfg.DeviceID,
		cooldown:       cfg.Cooldown,
		maxConsecutive: cfg.MaxConsecutiveTriggers,
		now:            cfg.Now,
	}
	if detector, ok := cfg.Provider.(recognizer.FaceDetector); ok {
		e.detector = detector
	}
	if e.cooldown == 0 {
		e.cooldown = 5 * time.Second
	}
	if e.maxConsecutive == 0 {
		e.maxConsecutive = 3
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Process runs one frame through the decision gates. Every deny carries a
// reason tag; the hardware is pulsed only from the single trigger site
// below, so each pulse corresponds to exactly one triggered decision.
func (e *Engine) Process(ctx context.Context, frame []byte) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	// Presence gate. Short-circuits the embedding step on empty frames
	// and lets the burst counter recover once the subject has left.
	hasFace := true
	if e.detector != nil {
		ok, err := e.detector.HasFace(ctx, frame)
		if err != nil {
			slog.Warn("Face detection failed, assuming presence", "error", err)
		} else {
			hasFace = ok
		}
	}
	if !hasFace {
		e.lastNoFace = now
		if now.Sub(e.lastTrigger) > noFaceResetWindow && e.consecutive > 0 {
			slog.Debug("Frame empty, resetting consecutive trigger counter")
			e.consecutive = 0
		}
		return e.finish(Decision{Reasons: []string{ReasonNoFace}})
	}

	// Burst gate. A person lingering in frame must not re-trigger forever.
	if e.consecutive >= e.maxConsecutive {
		slog.Debug("Max consecutive triggers reached, ignoring frame",
			"max", e.maxConsecutive)
		return e.finish(Decision{Reasons: []string{ReasonMaxTriggers}})
	}

	probe, err := e.provider.Embed(ctx, frame)
	if err != nil {
		slog.Warn("Embedding failed", "error", err)
		return e.finish(Decision{Reasons: []string{ReasonEmbedFailed}})
	}

	cache := e.cache.Current()
	match, score := matcher.BestMatch(probe, e.provider.Name(), cache.Embeddings)

	threshold := e.live.Threshold()
	decision := Decision{Score: score}
	allowed := match != nil && score >= threshold
	if match == nil {
		decision.Reasons = append(decision.Reasons, ReasonNoMatch)
	} else if !allowed {
		decision.Reasons = append(decision.Reasons, ReasonBelowThreshold)
		slog.Debug("Access denied: below threshold",
			"score", score, "threshold", threshold, "person", match.PersonName)
	}

	if allowed {
		var user *models.User
		if match.UserID != nil {
			user = cache.UserByID(*match.UserID)
		}
		if user != nil {
			decision.Identifier = user.Identifier
		} else {
			decision.Identifier = match.PersonName
		}

		// Local enrollments are exempt from expiry and schedule checks.
		if !match.IsLocal {
			if userExpired(user, now) {
				allowed = false
				decision.Reasons = append(decision.Reasons, ReasonExpired)
			}
			if allowed && user != nil && !withinSchedule(cache, user.ID, now) {
				allowed = false
				decision.Reasons = append(decision.Reasons, ReasonOutsideSchedule)
			}
		}
	}
	decision.Allowed = allowed

	if allowed {
		if since := now.Sub(e.lastTrigger); since < e.cooldown {
			// Grant stands for reporting purposes; hardware stays quiet.
			decision.Reasons = append(decision.Reasons, ReasonCooldown)
			slog.Debug("Access granted within cooldown, not re-triggering",
				"identifier", decision.Identifier,
				"remaining", e.cooldown-since)
		} else {
			if err := e.trigger.Trigger(ctx); err != nil {
				slog.Error("Hardware trigger failed", "error", err)
			}
			e.lastTrigger = now
			e.consecutive++
			decision.Triggered = true
			metrics.Triggers.Inc()
			slog.Info("Access granted",
				"identifier", decision.Identifier,
				"score", score,
				"consecutive", e.consecutive)
		}
	}

	// Local-user traffic is never reported remotely.
	if e.reporter != nil && (match == nil || !match.IsLocal) {
		status := models.StatusDenied
		if decision.Allowed {
			status = models.StatusSuccess
		}
		e.reporter.Report(models.AccessEvent{
			Identifier: decision.Identifier,
			Status:     status,
			Message:    fmt.Sprintf("score=%.3f", score),
			DeviceID:   e.deviceID,
			Confidence: score,
		})
	}
	return e.finish(decision)
}

// ManualUnlock pulses the hardware on behalf of the physical exit button.
// It bypasses matching entirely but honors the cooldown so a held-down
// button cannot hammer the relay. Returns whether the pulse fired.
func (e *Engine) ManualUnlock(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if since := now.Sub(e.lastTrigger); since < e.cooldown {
		slog.Debug("Manual unlock within cooldown, ignored", "remaining", e.cooldown-since)
		return false
	}
	if err := e.trigger.Trigger(ctx); err != nil {
		slog.Error("Hardware trigger failed", "error", err)
	}
	e.lastTrigger = now
	metrics.Triggers.Inc()
	slog.Info("Manual unlock triggered")

	if e.reporter != nil {
		e.reporter.Report(models.AccessEvent{
			Identifier: "exit-button",
			Status:     models.StatusSuccess,
			Message:    "manual unlock",
			DeviceID:   e.deviceID,
		})
	}
	return true
}

func (e *Engine) finish(d Decision) Decision {
	metrics.Decisions.WithLabelValues(d.Outcome()).Inc()
	return d
}
