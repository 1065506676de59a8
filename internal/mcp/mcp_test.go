package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcp_internal "github.com/zot/seriesdata/internal/mcp"
	"github.com/zot/seriesdata/internal/protocol"
	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/source"
)

type point struct {
	X, Y float64
}

type backend struct {
	reg       *series.Registry
	d         *series.Dependent
	refreshed int
}

func (b *backend) List() []protocol.SeriesInfo { return []protocol.SeriesInfo{protocol.InfoOf(b.d)} }

func (b *backend) Snapshot(name string) (*protocol.Snapshot, error) {
	if name != b.d.Name {
		return nil, protocol.ErrUnknownSeries
	}
	return protocol.SnapshotOf(b.d), nil
}

func (b *backend) Refresh(name string) error {
	if name != b.d.Name {
		return protocol.ErrUnknownSeries
	}
	h, _ := b.d.Handle()
	b.refreshed++
	return b.reg.Refresh(h)
}

func newBackend(t *testing.T) *backend {
	reg := series.NewRegistry(nil)
	d := &series.Dependent{Name: "temp", XPath: "X", YPaths: []string{"Y"}}
	_, err := reg.Bind(source.NewList(&point{1, 10}, &point{2, 20}, &point{3, 30}), d)
	require.NoError(t, err)
	return &backend{reg: reg, d: d}
}

func call(t *testing.T, b *backend, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(b, "test")
	st := s.GetTool(tool)
	require.NotNil(t, st, "tool %s should exist", tool)
	res, err := st.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: tool, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestListSeries(t *testing.T) {
	res := call(t, newBackend(t), "list_series", nil)
	require.False(t, res.IsError)

	var list protocol.ListResponse
	require.NoError(t, json.Unmarshal([]byte(text(res)), &list))
	require.Len(t, list.Series, 1)
	assert.Equal(t, "temp", list.Series[0].Name)
	assert.Equal(t, 3, list.Series[0].Points)
	assert.True(t, list.Series[0].Linear)
}

func TestGetSeries(t *testing.T) {
	b := newBackend(t)

	t.Run("full", func(t *testing.T) {
		res := call(t, b, "get_series", map[string]any{"name": "temp"})
		require.False(t, res.IsError)
		var snap protocol.Snapshot
		require.NoError(t, json.Unmarshal([]byte(text(res)), &snap))
		assert.Equal(t, []protocol.Number{1, 2, 3}, snap.X)
		assert.Equal(t, [][]protocol.Number{{10, 20, 30}}, snap.Y)
	})

	t.Run("limit", func(t *testing.T) {
		res := call(t, b, "get_series", map[string]any{"name": "temp", "limit": 2.0})
		require.False(t, res.IsError)
		var snap protocol.Snapshot
		require.NoError(t, json.Unmarshal([]byte(text(res)), &snap))
		assert.Equal(t, []protocol.Number{1, 2}, snap.X)
		assert.Equal(t, [][]protocol.Number{{10, 20}}, snap.Y)
		assert.Equal(t, 3, snap.Points)
	})

	t.Run("missing name", func(t *testing.T) {
		res := call(t, b, "get_series", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "name is required")
	})

	t.Run("unknown", func(t *testing.T) {
		res := call(t, b, "get_series", map[string]any{"name": "none"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), protocol.ErrUnknownSeries.Error())
	})
}

func TestRefreshSeries(t *testing.T) {
	b := newBackend(t)
	res := call(t, b, "refresh_series", map[string]any{"name": "temp"})
	require.False(t, res.IsError)
	assert.Equal(t, 1, b.refreshed)

	res = call(t, b, "refresh_series", map[string]any{"name": "none"})
	assert.True(t, res.IsError)
	assert.Equal(t, 1, b.refreshed)
}
