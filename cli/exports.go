// Package cli provides the command-line interface for seriesdata.
// This file re-exports internal packages for embedding projects.
package cli

import (
	"github.com/zot/seriesdata/internal/luasource"
	"github.com/zot/seriesdata/internal/server"
	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/source"
)

// Re-export core types
type (
	Server    = server.Server
	Registry  = series.Registry
	Dependent = series.Dependent
	Handle    = series.Handle
	Source    = source.Source
	List      = source.List
	LuaScript = luasource.Script
	LuaItem   = luasource.Item
)

// Re-export constructors
var (
	NewServer   = server.New
	NewRegistry = series.NewRegistry
	NewList     = source.NewList
	NewScript   = luasource.New
)

// Re-export Lua utilities
var (
	LuaToGo = luasource.ToGo
)
