package journal

import "database/sql"

// schema contains the SQL statements to set up the journal tables.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS access_events (
    id TEXT PRIMARY KEY,
    identifier TEXT,
    status TEXT NOT NULL,
    message TEXT,
    device_id TEXT NOT NULL,
    confidence REAL NOT NULL,
    created_at INTEGER NOT NULL,
    reported INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_access_events_reported ON access_events(reported, created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
