// Package hardware drives the door-release output and the optional exit
// button through the Linux GPIO character device. Whether real hardware is
// present is resolved once at startup; without it the daemon degrades to a
// logging-only trigger so the decision pipeline stays testable on a bench.
package hardware

import (
	"context"
	"log/slog"
	"time"
)

// Trigger pulses the barrier release. Trigger is synchronous and may block
// for the pulse duration; it must be best-effort and idempotent with
// respect to the idle (locked) level.
type Trigger interface {
	Trigger(ctx context.Context) error

	// Cleanup forces the idle level before releasing the line. Called on
	// shutdown.
	Cleanup() error
}

// Detect opens the GPIO output if the chip is available, otherwise falls
// back to a logging-only trigger. The choice is made once; the hot path
// never re-probes hardware.
func Detect(chip string, pin int, pulse func() time.Duration) Trigger {
	gpio, err := NewGPIOTrigger(chip, pin, pulse)
	if err != nil {
		slog.Warn("GPIO unavailable, trigger actions will be logged only",
			"chip", chip, "pin", pin, "error", err)
		return &LogTrigger{pin: pin, pulse: pulse}
	}
	return gpio
}

// LogTrigger is the no-hardware fallback.
type LogTrigger struct {
	pin   int
	pulse func() time.Duration
}

// Trigger logs the pulse that would have happened.
func (t *LogTrigger) Trigger(ctx context.Context) error {
	slog.Info("GPIO trigger simulated", "pin", t.pin, "pulse", t.pulse())
	return nil
}

// Cleanup implements Trigger.
func (t *LogTrigger) Cleanup() error { return nil }
