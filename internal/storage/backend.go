// Package storage archives the last published snapshot of each series.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Load for series with no archived snapshot.
var ErrNotFound = errors.New("no archived snapshot")

// Record is one archived snapshot.
type Record struct {
	Series string          `json:"series"`
	Saved  time.Time       `json:"saved"`
	Points int             `json:"points"`
	Data   json.RawMessage `json:"data"`
}

// Backend defines the interface for storage backends.
type Backend interface {
	// Store saves r, replacing any earlier record of the same series.
	Store(r *Record) error

	// Load retrieves the record of a series.
	Load(series string) (*Record, error)

	// List returns the archived series names in order.
	List() ([]string, error)

	// Delete removes the record of a series.
	Delete(series string) error

	// Clear removes all data.
	Clear() error

	// Close closes the storage backend.
	Close() error
}

// Open returns the backend named by url:
//
//	"" or "memory"          in-memory
//	"sqlite:PATH"           SQLite file
//	"postgres://..."        PostgreSQL
func Open(url string) (Backend, error) {
	switch {
	case url == "" || url == "memory":
		return NewMemoryStorage(), nil
	case strings.HasPrefix(url, "sqlite:"):
		return NewSQLiteStorage(strings.TrimPrefix(url, "sqlite:"))
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresStorage(url)
	}
	return nil, fmt.Errorf("unsupported storage url %q: use memory, sqlite:PATH or postgres://", url)
}
