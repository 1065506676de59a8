// Package cli provides the command-line interface for seriesdata.
// This file re-exports config types from internal/config for public API.
package cli

import (
	"github.com/zot/seriesdata/internal/config"
)

// Re-export config types for public API
type (
	Config        = config.Config
	DataConfig    = config.DataConfig
	SeriesConfig  = config.SeriesConfig
	ServerConfig  = config.ServerConfig
	LoggingConfig = config.LoggingConfig
	Duration      = config.Duration
)

// Re-export config functions for public API
var (
	DefaultConfig = config.DefaultConfig
	Load          = config.Load
)
