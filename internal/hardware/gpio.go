package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Line levels: the release relay is wired active-low. High means locked.
const (
	levelLocked   = 1
	levelUnlocked = 0
)

// GPIOTrigger drives the door-release line via the GPIO character device.
type GPIOTrigger struct {
	line  *gpiocdev.Line
	pin   int
	pulse func() time.Duration
}

// NewGPIOTrigger requests the output line and drives it to the locked
// level. pulse is read per trigger so remote pulse-duration overrides take
// effect without re-requesting the line.
func NewGPIOTrigger(chip string, pin int, pulse func() time.Duration) (*GPIOTrigger, error) {
	line, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsOutput(levelLocked),
		gpiocdev.WithConsumer("faceguard"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request gpio line %s:%d: %w", chip, pin, err)
	}
	slog.Info("GPIO initialized", "chip", chip, "pin", pin, "initial", "locked")
	return &GPIOTrigger{line: line, pin: pin, pulse: pulse}, nil
}

// Trigger drops the line to the unlocked level for the pulse duration, then
// restores the locked level. The re-lock happens even when ctx is cancelled
// mid-pulse.
func (t *GPIOTrigger) Trigger(ctx context.Context) error {
	if err := t.line.SetValue(levelUnlocked); err != nil {
		return fmt.Errorf("failed to set gpio pin %d low: %w", t.pin, err)
	}

	timer := time.NewTimer(t.pulse())
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}

	if err := t.line.SetValue(levelLocked); err != nil {
		return fmt.Errorf("failed to restore gpio pin %d high: %w", t.pin, err)
	}
	return nil
}

// Cleanup forces the locked level and releases the line.
func (t *GPIOTrigger) Cleanup() error {
	if err := t.line.SetValue(levelLocked); err != nil {
		slog.Warn("Failed to force locked level on cleanup", "pin", t.pin, "error", err)
	}
	if err := t.line.Close(); err != nil {
		return fmt.Errorf("failed to release gpio line: %w", err)
	}
	return nil
}
