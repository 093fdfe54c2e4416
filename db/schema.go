// ABOUTME: Database schema definitions for the SQLite storage backend
// ABOUTME: A single key/value table holding one JSON snapshot per collection
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
