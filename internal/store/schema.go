package store

import (
	"database/sql"
	"fmt"
)

// Schema for the append-only message log. Rowid order doubles as append
// order, which keeps "most recent N" a pure index scan.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	body TEXT NOT NULL,
	timestamp DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
`

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	return nil
}
