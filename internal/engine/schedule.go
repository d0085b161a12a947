package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/faceguard/faceguard/internal/models"
)

// expiresLayouts are the timestamp shapes the remote service is known to
// emit for expires_at.
var expiresLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// userExpired reports whether the user's expiry timestamp is in the past.
// A missing user, empty timestamp, or unparseable timestamp is treated as
// not expired; a bad record must not lock everyone out.
func userExpired(user *models.User, now time.Time) bool {
	if user == nil || user.ExpiresAt == "" {
		return false
	}
	for _, layout := range expiresLayouts {
		if expires, err := time.Parse(layout, user.ExpiresAt); err == nil {
			return expires.Before(now.UTC())
		}
	}
	slog.Debug("Unparseable expires_at, treating as not expired",
		"user_id", user.ID, "expires_at", user.ExpiresAt)
	return false
}

// withinSchedule evaluates the user's access windows at the given instant.
// No windows means unrestricted access. Otherwise at least one window on
// the current weekday must contain the time of day, bounds inclusive.
// Malformed window times are skipped, never fatal.
func withinSchedule(cache *models.Cache, userID int64, now time.Time) bool {
	windows := cache.WindowsForUser(userID)
	if len(windows) == 0 {
		return true
	}

	now = now.UTC()
	// The remote service numbers weekdays Monday=0 through Sunday=6.
	day := (int(now.Weekday()) + 6) % 7
	current := now.Hour()*3600 + now.Minute()*60 + now.Second()

	for _, w := range windows {
		if w.DayOfWeek != day {
			continue
		}
		start, err := parseClock(w.StartTime)
		if err != nil {
			slog.Debug("Skipping malformed access window",
				"user_id", userID, "start", w.StartTime, "error", err)
			continue
		}
		end, err := parseClock(w.EndTime)
		if err != nil {
			slog.Debug("Skipping malformed access window",
				"user_id", userID, "end", w.EndTime, "error", err)
			continue
		}
		if start <= current && current <= end {
			return true
		}
	}
	return false
}

// parseClock converts "HH:MM" or "HH:MM:SS" to seconds since midnight.
func parseClock(value string) (int, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
		}
	}
	return 0, fmt.Errorf("invalid clock value %q", value)
}
