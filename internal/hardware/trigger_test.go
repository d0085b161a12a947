package hardware

import (
	"context"
	"testing"
	"time"
)

func TestDetectFallsBackWithoutHardware(t *testing.T) {
	// No gpiochip exists under this name on a test machine.
	trigger := Detect("gpiochip-test-none", 17, func() time.Duration { return time.Millisecond })

	if _, ok := trigger.(*LogTrigger); !ok {
		t.Fatalf("trigger = %T, want *LogTrigger fallback", trigger)
	}
	if err := trigger.Trigger(context.Background()); err != nil {
		t.Errorf("simulated trigger failed: %v", err)
	}
	if err := trigger.Cleanup(); err != nil {
		t.Errorf("cleanup failed: %v", err)
	}
}
