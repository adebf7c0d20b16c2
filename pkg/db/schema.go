// Package db provides SQLite database management for sync history and metadata.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Sync history table
-- Tracks which Notion expense pages have been pulled into the snapshot
CREATE TABLE IF NOT EXISTS sync_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id TEXT NOT NULL UNIQUE,      -- Notion page ID
    item TEXT NOT NULL,                -- Expense item name
    record_date TEXT,                  -- YYYY-MM-DD, may be empty
    amount REAL NOT NULL,
    event_bucket TEXT,                 -- Event bucket title, may be empty
    month_bucket TEXT,                 -- Month bucket title, may be empty
    synced_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_history_date
    ON sync_history(record_date);

CREATE INDEX IF NOT EXISTS idx_sync_history_event
    ON sync_history(event_bucket);

CREATE INDEX IF NOT EXISTS idx_sync_history_month
    ON sync_history(month_bucket);

-- Sync metadata table
-- Stores key-value metadata about sync operations
CREATE TABLE IF NOT EXISTS sync_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
