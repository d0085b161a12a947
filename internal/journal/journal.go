// Package journal keeps a local SQLite log of access events. Every decision
// is journaled before it is reported, so the device retains an audit trail
// across network outages and the drainer can re-post events that never
// reached the remote service.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/faceguard/faceguard/internal/models"
)

// Journal is a SQLite-backed event log.
type Journal struct {
	db *sql.DB
}

// Open creates the journal database at the given path, creating parent
// directories and running migrations as needed.
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run journal migrations: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append records an event. The event's ID and CreatedAt are populated if
// unset, and the stored event is returned.
func (j *Journal) Append(ctx context.Context, event models.AccessEvent) (models.AccessEvent, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO access_events (id, identifier, status, message, device_id, confidence, created_at, reported)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		event.ID, event.Identifier, event.Status, event.Message,
		event.DeviceID, event.Confidence, event.CreatedAt,
	)
	if err != nil {
		return event, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

// Unreported returns up to limit events that have not been acknowledged by
// the remote service, oldest first.
func (j *Journal) Unreported(ctx context.Context, limit int) ([]models.AccessEvent, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, identifier, status, message, device_id, confidence, created_at
		 FROM access_events WHERE reported = 0 ORDER BY created_at ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unreported events: %w", err)
	}
	defer rows.Close()

	var events []models.AccessEvent
	for rows.Next() {
		var e models.AccessEvent
		if err := rows.Scan(&e.ID, &e.Identifier, &e.Status, &e.Message,
			&e.DeviceID, &e.Confidence, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// MarkReported flags an event as delivered.
func (j *Journal) MarkReported(ctx context.Context, id string) error {
	if _, err := j.db.ExecContext(ctx,
		"UPDATE access_events SET reported = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark event reported: %w", err)
	}
	return nil
}

// Prune deletes reported events older than the retention window, keeping
// the journal bounded on devices with small storage.
func (j *Journal) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := j.db.ExecContext(ctx,
		"DELETE FROM access_events WHERE reported = 1 AND created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
