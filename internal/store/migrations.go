package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// OAuth tokens per athlete; the latest authorization is used
		`CREATE TABLE IF NOT EXISTS credentials (
			athlete_id INTEGER PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			authorized_at INTEGER NOT NULL
		)`,

		// Segment details from /segments/{id} plus the latlng stream
		`CREATE TABLE IF NOT EXISTS segments (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			distance REAL NOT NULL,
			elapsed_time INTEGER NOT NULL DEFAULT 0,
			moving_time INTEGER NOT NULL DEFAULT 0,
			elevation_high REAL,
			elevation_low REAL,
			average_grade REAL,
			country TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			coordinates TEXT NOT NULL DEFAULT '[]',
			fetched_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_segments_region ON segments(country, state)`,

		// Sync State (key-value store for fetch bookkeeping)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
