package hardware

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// ExitButton watches an input line wired to a physical exit button (button
// pulls the line to ground) and invokes a callback on each debounced press.
type ExitButton struct {
	line *gpiocdev.Line

	mu        sync.Mutex
	lastPress time.Time
}

// NewExitButton requests the input line with a pull-up and edge events.
// onPress runs on the event goroutine and should return quickly.
func NewExitButton(chip string, pin int, debounce time.Duration, onPress func()) (*ExitButton, error) {
	b := &ExitButton{}
	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type != gpiocdev.LineEventFallingEdge {
			return
		}
		b.mu.Lock()
		now := time.Now()
		if now.Sub(b.lastPress) < debounce {
			b.mu.Unlock()
			return
		}
		b.lastPress = now
		b.mu.Unlock()

		slog.Info("Exit button pressed", "pin", pin)
		onPress()
	}

	line, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler),
		gpiocdev.WithConsumer("faceguard-exit"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request exit button line %s:%d: %w", chip, pin, err)
	}
	b.line = line
	slog.Info("Exit button initialized", "chip", chip, "pin", pin)
	return b, nil
}

// Close releases the input line.
func (b *ExitButton) Close() error {
	if err := b.line.Close(); err != nil {
		return fmt.Errorf("failed to release exit button line: %w", err)
	}
	return nil
}
