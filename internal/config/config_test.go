package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/faceguard/faceguard/internal/models"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Threshold != 0.6 {
		t.Errorf("Threshold = %v, want 0.6", cfg.Threshold)
	}
	if cfg.Cooldown != 5*time.Second {
		t.Errorf("Cooldown = %v, want 5s", cfg.Cooldown)
	}
	if cfg.MaxConsecutiveTriggers != 3 {
		t.Errorf("MaxConsecutiveTriggers = %d, want 3", cfg.MaxConsecutiveTriggers)
	}
	if !reflect.DeepEqual(cfg.ModelPriority, []string{"insightface", "hashed"}) {
		t.Errorf("ModelPriority = %v", cfg.ModelPriority)
	}
	if cfg.ExitButtonPin != -1 {
		t.Errorf("ExitButtonPin = %d, want -1 (disabled)", cfg.ExitButtonPin)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("THRESHOLD", "0.75")
	t.Setenv("ACCESS_COOLDOWN", "10s")
	t.Setenv("MODEL_PRIORITY", " facenet , hashed ,")
	t.Setenv("GPIO_PIN", "27")
	t.Setenv("MAX_CONSECUTIVE_TRIGGERS", "nonsense")

	cfg := FromEnv()

	if cfg.Threshold != 0.75 {
		t.Errorf("Threshold = %v, want 0.75", cfg.Threshold)
	}
	if cfg.Cooldown != 10*time.Second {
		t.Errorf("Cooldown = %v, want 10s", cfg.Cooldown)
	}
	if !reflect.DeepEqual(cfg.ModelPriority, []string{"facenet", "hashed"}) {
		t.Errorf("ModelPriority = %v, want trimmed two-element list", cfg.ModelPriority)
	}
	if cfg.GPIOPin != 27 {
		t.Errorf("GPIOPin = %d, want 27", cfg.GPIOPin)
	}
	// Unparseable values fall back rather than failing startup.
	if cfg.MaxConsecutiveTriggers != 3 {
		t.Errorf("MaxConsecutiveTriggers = %d, want default 3", cfg.MaxConsecutiveTriggers)
	}
}

func TestLiveApply(t *testing.T) {
	live := NewLive(Config{
		Threshold:    0.6,
		GPIOPulse:    800 * time.Millisecond,
		SyncInterval: 5 * time.Minute,
	})

	threshold := 0.9
	pulseMs := 300
	live.Apply(&models.RemoteConfig{Threshold: &threshold, GPIOPulseMs: &pulseMs})

	if got := live.Threshold(); got != 0.9 {
		t.Errorf("Threshold = %v, want 0.9", got)
	}
	if got := live.GPIOPulse(); got != 300*time.Millisecond {
		t.Errorf("GPIOPulse = %v, want 300ms", got)
	}
	// Fields absent from the payload keep their current values.
	if got := live.SyncInterval(); got != 5*time.Minute {
		t.Errorf("SyncInterval = %v, want 5m", got)
	}
}

func TestLiveApplyNilConfigKeepsSnapshot(t *testing.T) {
	live := NewLive(Config{Threshold: 0.6, GPIOPulse: time.Second, SyncInterval: time.Minute})
	before := live.Snapshot()

	live.Apply(nil)

	if live.Snapshot() != before {
		t.Errorf("snapshot changed on nil config: %+v", live.Snapshot())
	}
}
