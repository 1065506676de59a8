package storage

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage is a SQLite storage backend.
type SQLiteStorage struct {
	sqlStorage
}

// NewSQLiteStorage opens (creating if needed) the SQLite archive at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Limit SQLite to a single open connection to avoid "database is locked" errors
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			series TEXT PRIMARY KEY,
			saved INTEGER NOT NULL,
			points INTEGER NOT NULL,
			data TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{sqlStorage{
		db:     db,
		upsert: "INSERT OR REPLACE INTO snapshots (series, saved, points, data) VALUES (?, ?, ?, ?)",
		load:   "SELECT saved, points, data FROM snapshots WHERE series = ?",
		remove: "DELETE FROM snapshots WHERE series = ?",
	}}, nil
}
