package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandVerbosityFlags(t *testing.T) {
	got := expandVerbosityFlags([]string{"-vvv", "-version", "-v", "show", "--verbose"})
	assert.Equal(t, []string{"-v", "-v", "-v", "-version", "-v", "show", "--verbose"}, got)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load([]string{"show"})
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.Server.FlushInterval.Duration())
	assert.Equal(t, []string{"show"}, cfg.Args)
	assert.Empty(t, cfg.Path)
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "series.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[data]
path = "points.json"
format = "json"

[[series]]
name = "temp"
x = "Time"
y = ["Low", "High"]
listen = true

[server]
port = 9000
flush_interval = "200ms"

[logging]
verbosity = 1
`), 0o644))

	t.Setenv("SERIES_PORT", "9100")
	cfg, err := Load([]string{"-config", path, "-vv", "serve"})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "points.json", cfg.Data.Path)
	require.Len(t, cfg.Series, 1)
	assert.Equal(t, SeriesConfig{Name: "temp", X: "Time", Y: []string{"Low", "High"}, Listen: true}, cfg.Series[0])
	assert.Equal(t, 9100, cfg.Server.Port, "env beats file")
	assert.Equal(t, 200*time.Millisecond, cfg.Server.FlushInterval.Duration())
	assert.Equal(t, 2, cfg.Verbosity(), "flags beat file")
	assert.Equal(t, []string{"serve"}, cfg.Args)

	cfg, err = Load([]string{"-config", path, "-port", "7000", "-x", "A", "-y", "B, C"})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []SeriesConfig{{Name: "series", X: "A", Y: []string{"B", "C"}}}, cfg.Series)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err, "an explicit config file must exist")

	t.Chdir(t.TempDir())
	_, err = Load([]string{"-format", "xml"})
	assert.Error(t, err)
}

func TestValidateSeriesNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Series = []SeriesConfig{{Name: "a"}, {Name: "a"}}
	assert.Error(t, cfg.Validate())
	cfg.Series = []SeriesConfig{{X: "X"}}
	assert.Error(t, cfg.Validate())
}

func TestLoadStorage(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERIES_STORE", "memory")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.URL)

	cfg, err = Load([]string{"-store", "sqlite:archive.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite:archive.db", cfg.Storage.URL, "flag beats env")
}
