package config

import (
	"sync/atomic"
	"time"

	"github.com/faceguard/faceguard/internal/models"
)

// Overrides is the subset of settings the remote service may adjust per
// device. A complete value is published after each successful sync; the
// decision loop reads whole snapshots, never individual mutated fields.
type Overrides struct {
	Threshold    float64
	GPIOPulse    time.Duration
	SyncInterval time.Duration
}

// Live holds the current Overrides behind an atomic pointer so the sync
// loop can publish and the frame loop can read without locking.
type Live struct {
	current atomic.Pointer[Overrides]
}

// NewLive seeds the live overrides from the startup configuration.
func NewLive(cfg Config) *Live {
	l := &Live{}
	l.current.Store(&Overrides{
		Threshold:    cfg.Threshold,
		GPIOPulse:    cfg.GPIOPulse,
		SyncInterval: cfg.SyncInterval,
	})
	return l
}

// Snapshot returns the current overrides value.
func (l *Live) Snapshot() Overrides {
	return *l.current.Load()
}

// Threshold returns the current match threshold.
func (l *Live) Threshold() float64 { return l.current.Load().Threshold }

// GPIOPulse returns the current hardware pulse duration.
func (l *Live) GPIOPulse() time.Duration { return l.current.Load().GPIOPulse }

// SyncInterval returns the current resync interval.
func (l *Live) SyncInterval() time.Duration { return l.current.Load().SyncInterval }

// Apply publishes a new snapshot, taking values from the remote config
// where present and keeping the current ones where absent. GPIOPin is
// deliberately ignored: the output line is requested once at startup and
// cannot be moved without re-initializing the hardware.
func (l *Live) Apply(rc *models.RemoteConfig) {
	next := l.Snapshot()
	if rc != nil {
		if rc.Threshold != nil {
			next.Threshold = *rc.Threshold
		}
		if rc.GPIOPulseMs != nil {
			next.GPIOPulse = time.Duration(*rc.GPIOPulseMs) * time.Millisecond
		}
		if rc.SyncIntervalSec != nil {
			next.SyncInterval = time.Duration(*rc.SyncIntervalSec) * time.Second
		}
	}
	l.current.Store(&next)
}
