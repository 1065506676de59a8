package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zot/seriesdata/internal/protocol"
)

type toolHandler struct {
	backend protocol.Backend
}

func (h *toolHandler) handleListSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, _ := json.MarshalIndent(protocol.ListResponse{Series: h.backend.List()}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	snap, err := h.backend.Snapshot(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get_series failed: %v", err)), nil
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		truncate(snap, limit)
	}
	jsonData, _ := json.MarshalIndent(snap, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleRefreshSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	if err := h.backend.Refresh(name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("refresh_series failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("refreshed %s", name)), nil
}

// truncate keeps the first n points of every column. Points keeps the full count.
func truncate(s *protocol.Snapshot, n int) {
	s.X = head(s.X, n)
	s.XLabels = head(s.XLabels, n)
	s.XTimes = head(s.XTimes, n)
	s.Index = head(s.Index, n)
	if s.Grouped {
		s.Y = head(s.Y, n)
		return
	}
	for i := range s.Y {
		s.Y[i] = head(s.Y[i], n)
	}
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
