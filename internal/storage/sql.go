package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqlStorage holds the queries shared by the SQL backends. Placeholders
// differ per driver, so each backend supplies its own statements.
type sqlStorage struct {
	db *sql.DB

	upsert string
	load   string
	remove string
}

// Store persists a record.
func (s *sqlStorage) Store(r *Record) error {
	_, err := s.db.Exec(s.upsert, r.Series, r.Saved.UnixMicro(), r.Points, string(r.Data))
	return err
}

// Load retrieves the record of series.
func (s *sqlStorage) Load(series string) (*Record, error) {
	var saved int64
	var points int
	var data string

	err := s.db.QueryRow(s.load, series).Scan(&saved, &points, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, series)
	}
	if err != nil {
		return nil, err
	}
	return &Record{
		Series: series,
		Saved:  time.UnixMicro(saved).UTC(),
		Points: points,
		Data:   []byte(data),
	}, nil
}

// List returns the archived series names in order.
func (s *sqlStorage) List() ([]string, error) {
	rows, err := s.db.Query("SELECT series FROM snapshots ORDER BY series")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the record of series.
func (s *sqlStorage) Delete(series string) error {
	_, err := s.db.Exec(s.remove, series)
	return err
}

// Clear removes all data.
func (s *sqlStorage) Clear() error {
	_, err := s.db.Exec("DELETE FROM snapshots")
	return err
}

// Close closes the storage backend.
func (s *sqlStorage) Close() error {
	return s.db.Close()
}
