// Package mcp exposes published series to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zot/seriesdata/internal/protocol"
)

// NewMCPServer builds the series MCP server without starting it.
func NewMCPServer(backend protocol.Backend, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Series Data Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{backend: backend}

	s.AddTool(mcp.NewTool("list_series",
		mcp.WithDescription("List the published series with their paths, point counts and linearity."),
	), h.handleListSeries)

	s.AddTool(mcp.NewTool("get_series",
		mcp.WithDescription("Return the columns of one series."),
		mcp.WithString("name", mcp.Description("Series name."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Return at most this many points from the start.")),
	), h.handleGetSeries)

	s.AddTool(mcp.NewTool("refresh_series",
		mcp.WithDescription("Regenerate a series (and every series sharing its source) from a full pass."),
		mcp.WithString("name", mcp.Description("Series name."), mcp.Required()),
	), h.handleRefreshSeries)

	return s
}

// ServeStdio runs the MCP server on stdin/stdout until the client disconnects.
func ServeStdio(backend protocol.Backend, version string) error {
	return server.ServeStdio(NewMCPServer(backend, version))
}
