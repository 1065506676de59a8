package storage

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, b Backend) {
	t.Helper()
	saved := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	_, err := b.Load("temp")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Store(&Record{Series: "temp", Saved: saved, Points: 2, Data: json.RawMessage(`{"points":2}`)}))
	require.NoError(t, b.Store(&Record{Series: "hum", Saved: saved, Points: 1, Data: json.RawMessage(`{"points":1}`)}))
	require.NoError(t, b.Store(&Record{Series: "temp", Saved: saved.Add(time.Second), Points: 3, Data: json.RawMessage(`{"points":3}`)}))

	r, err := b.Load("temp")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Points, "Store replaces")
	assert.True(t, saved.Add(time.Second).Equal(r.Saved))
	assert.JSONEq(t, `{"points":3}`, string(r.Data))

	names, err := b.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"hum", "temp"}, names)

	require.NoError(t, b.Delete("hum"))
	names, _ = b.List()
	assert.Equal(t, []string{"temp"}, names)

	require.NoError(t, b.Clear())
	names, _ = b.List()
	assert.Empty(t, names)
	require.NoError(t, b.Close())
}

func TestMemoryStorage(t *testing.T) {
	exercise(t, NewMemoryStorage())
}

func TestMemoryStorageCopies(t *testing.T) {
	m := NewMemoryStorage()
	data := json.RawMessage(`{"a":1}`)
	require.NoError(t, m.Store(&Record{Series: "s", Data: data}))
	data[2] = 'b'
	r, err := m.Load("s")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(r.Data))
	assert.Equal(t, 1, m.Count())
}

func TestSQLiteStorage(t *testing.T) {
	b, err := Open("sqlite:" + filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	exercise(t, b)
}

func TestOpen(t *testing.T) {
	b, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, b)

	_, err = Open("redis://localhost")
	assert.Error(t, err)
}
