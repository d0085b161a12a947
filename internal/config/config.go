// Package config builds the daemon configuration from environment variables
// and holds the live overrides that a successful sync may publish.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the immutable startup configuration. Remote overrides never
// mutate it; they go through Live instead.
type Config struct {
	// Remote service.
	APIBaseURL   string
	DeviceID     string
	Token        string // static bearer token, optional
	DeviceSecret string // HMAC secret for signed device tokens, optional
	HTTPTimeout  time.Duration

	// Frame supply. StreamURL takes precedence; FramesDir runs the
	// directory simulator instead (useful on a bench without a camera).
	StreamURL     string
	FramesDir     string
	FrameInterval time.Duration

	// Recognition.
	ModelPriority   []string // provider names, tried in order
	EmbedServiceURL string   // inference sidecar for the remote provider
	Threshold       float64

	// Decision timing.
	Cooldown               time.Duration
	MaxConsecutiveTriggers int

	// Storage.
	CachePath        string
	JournalPath      string
	JournalRetention time.Duration
	LocalUsersDir    string

	// Capture upload. When enabled, frames with a face that matched no
	// enrollment are pushed to the remote service for operator review.
	UploadUnmatched   bool
	UploadMinInterval time.Duration

	// Hardware.
	GPIOChip           string
	GPIOPin            int
	GPIOPulse          time.Duration
	ExitButtonPin      int // -1 disables the exit button
	ExitButtonDebounce time.Duration

	// Background loops.
	SyncInterval  time.Duration
	DrainInterval time.Duration

	// Observability.
	MetricsAddr string
}

// FromEnv returns the configuration taken from environment variables,
// falling back to defaults suitable for a bench setup.
func FromEnv() Config {
	return Config{
		APIBaseURL:   getEnv("API_BASE_URL", "http://127.0.0.1:8000"),
		DeviceID:     getEnv("DEVICE_ID", "edge-001"),
		Token:        os.Getenv("API_TOKEN"),
		DeviceSecret: os.Getenv("DEVICE_SECRET"),
		HTTPTimeout:  getDuration("HTTP_TIMEOUT", 15*time.Second),

		StreamURL:     os.Getenv("STREAM_URL"),
		FramesDir:     os.Getenv("FRAMES_DIR"),
		FrameInterval: getDuration("FRAME_INTERVAL", 100*time.Millisecond),

		ModelPriority:   splitList(getEnv("MODEL_PRIORITY", "insightface,hashed")),
		EmbedServiceURL: getEnv("EMBED_SERVICE_URL", "http://127.0.0.1:18081"),
		Threshold:       getFloat("THRESHOLD", 0.6),

		Cooldown:               getDuration("ACCESS_COOLDOWN", 5*time.Second),
		MaxConsecutiveTriggers: getInt("MAX_CONSECUTIVE_TRIGGERS", 3),

		CachePath:        getEnv("CACHE_PATH", "./data/cache.json"),
		JournalPath:      getEnv("JOURNAL_PATH", "./data/events.db"),
		JournalRetention: getDuration("EVENT_RETENTION", 14*24*time.Hour),
		LocalUsersDir:    getEnv("LOCAL_USERS_DIR", "./local_users"),

		UploadUnmatched:   getBool("UPLOAD_UNMATCHED", false),
		UploadMinInterval: getDuration("UPLOAD_MIN_INTERVAL", 30*time.Second),

		GPIOChip:           getEnv("GPIO_CHIP", "gpiochip0"),
		GPIOPin:            getInt("GPIO_PIN", 17),
		GPIOPulse:          getDuration("GPIO_PULSE", 800*time.Millisecond),
		ExitButtonPin:      getInt("EXIT_BUTTON_PIN", -1),
		ExitButtonDebounce: getDuration("EXIT_BUTTON_DEBOUNCE", 200*time.Millisecond),

		SyncInterval:  getDuration("SYNC_INTERVAL", 5*time.Minute),
		DrainInterval: getDuration("DRAIN_INTERVAL", 30*time.Second),

		MetricsAddr: getEnv("METRICS_ADDR", ":9108"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
