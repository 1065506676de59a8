// Package config handles configuration loading from CLI flags, environment variables, and TOML files.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration settings for the series tools.
type Config struct {
	Data    DataConfig     `toml:"data"`
	Series  []SeriesConfig `toml:"series"`
	Server  ServerConfig   `toml:"server"`
	Storage StorageConfig  `toml:"storage"`
	Logging LoggingConfig  `toml:"logging"`

	// Args holds the positional arguments left after flag parsing.
	Args []string `toml:"-"`
	// Path is the config file that was read, empty if none.
	Path string `toml:"-"`
}

// DataConfig describes where the items come from.
type DataConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format"` // "json", "toml", "lua"; empty means by extension
	Watch  bool   `toml:"watch"`
}

// SeriesConfig describes one dependent bound to the data source.
type SeriesConfig struct {
	Name    string   `toml:"name"`
	X       string   `toml:"x"`
	Y       []string `toml:"y"`
	Grouped bool     `toml:"grouped"`
	Listen  bool     `toml:"listen"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	FlushInterval Duration `toml:"flush_interval"` // batching window for area updates
}

// StorageConfig selects where published snapshots are archived.
type StorageConfig struct {
	URL string `toml:"url"` // "memory", "sqlite:PATH", "postgres://..."; empty disables archiving
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Verbosity int `toml:"verbosity"` // 0=errors, 1=lifecycle, 2=operations, 3=events, 4=values
}

// verbosityCounter implements flag.Value for counting -v flags.
type verbosityCounter int

func (v *verbosityCounter) String() string {
	return fmt.Sprintf("%d", *v)
}

func (v *verbosityCounter) Set(string) error {
	*v++
	return nil
}

func (v *verbosityCounter) IsBoolFlag() bool {
	return true
}

// expandVerbosityFlags preprocesses args to expand -vvv into -v -v -v.
func expandVerbosityFlags(args []string) []string {
	result := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) > 2 && arg[0] == '-' && arg[1] == 'v' && strings.Trim(arg[1:], "v") == "" {
			for range arg[1:] {
				result = append(result, "-v")
			}
			continue
		}
		result = append(result, arg)
	}
	return result
}

// Duration is a time.Duration that can be unmarshaled from TOML strings.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          8090,
			FlushInterval: Duration(50 * time.Millisecond),
		},
	}
}

// Load loads configuration from CLI flags, environment variables, and TOML file.
// Priority: CLI flags > env vars > TOML file > defaults
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	args = expandVerbosityFlags(args)

	fs := flag.NewFlagSet("seriesdata", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML config file (default config/config.toml)")

	// Data flags
	data := fs.String("data", "", "Item file: .json, .toml or .lua")
	format := fs.String("format", "", "Item file format: json, toml, lua")
	watch := fs.Bool("watch", false, "Reload the item file when it changes")

	// Series flags, defining one ad-hoc series
	name := fs.String("name", "", "Series name for -x/-y")
	x := fs.String("x", "", "X path of an ad-hoc series")
	y := fs.String("y", "", "Comma separated Y paths of an ad-hoc series")
	grouped := fs.Bool("grouped", false, "Y values are sequences")

	// Server flags
	host := fs.String("host", "", "Listen address")
	port := fs.Int("port", 0, "Listen port")
	flush := fs.Duration("flush", 0, "Batching window for area updates")

	// Storage flags
	store := fs.String("store", "", "Snapshot archive: memory, sqlite:PATH or postgres://...")

	var verbosity verbosityCounter
	fs.Var(&verbosity, "v", "Verbosity level (use -v, -vv, or -vvv)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := *configPath
	if path == "" {
		path = "config/config.toml"
	}
	if err := cfg.loadTOML(path); err == nil {
		cfg.Path = path
	} else if !os.IsNotExist(err) || *configPath != "" {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.applyEnv()

	// Apply CLI flags (highest priority)
	if *data != "" {
		cfg.Data.Path = *data
	}
	if *format != "" {
		cfg.Data.Format = *format
	}
	if *watch {
		cfg.Data.Watch = true
	}
	if *x != "" || *y != "" {
		s := SeriesConfig{Name: *name, X: *x, Grouped: *grouped}
		if *y != "" {
			s.Y = splitList(*y)
		}
		if s.Name == "" {
			s.Name = "series"
		}
		cfg.Series = []SeriesConfig{s}
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *flush != 0 {
		cfg.Server.FlushInterval = Duration(*flush)
	}
	if *store != "" {
		cfg.Storage.URL = *store
	}
	if verbosity > 0 {
		cfg.Logging.Verbosity = int(verbosity)
	}

	cfg.Args = fs.Args()
	return cfg, cfg.Validate()
}

// Validate checks settings that would fail later in less obvious ways.
func (c *Config) Validate() error {
	switch c.Data.Format {
	case "", "json", "toml", "lua":
	default:
		return fmt.Errorf("unknown data format %q", c.Data.Format)
	}
	seen := make(map[string]bool)
	for i, s := range c.Series {
		if s.Name == "" {
			return fmt.Errorf("series %d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate series %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// loadTOML loads configuration from a TOML file.
func (c *Config) loadTOML(path string) error {
	_, err := toml.DecodeFile(path, c)
	return err
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("SERIES_DATA"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("SERIES_FORMAT"); v != "" {
		c.Data.Format = v
	}
	if v := os.Getenv("SERIES_WATCH"); v != "" {
		c.Data.Watch = v == "true" || v == "1"
	}
	if v := os.Getenv("SERIES_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERIES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SERIES_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Server.FlushInterval = Duration(d)
		}
	}
	if v := os.Getenv("SERIES_STORE"); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv("SERIES_VERBOSITY"); v != "" {
		if verbosity, err := strconv.Atoi(v); err == nil {
			c.Logging.Verbosity = verbosity
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Verbosity returns the configured verbosity level.
func (c *Config) Verbosity() int {
	return c.Logging.Verbosity
}

// Log prints a message if the verbosity level is at least level.
func (c *Config) Log(level int, format string, args ...interface{}) {
	if c == nil || c.Logging.Verbosity < level {
		return
	}
	log.Printf("[v%d] "+format, append([]interface{}{level}, args...)...)
}

// ListenAddr returns host:port for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
