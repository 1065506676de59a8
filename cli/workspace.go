package cli

import (
	"fmt"
	"os"

	"github.com/zot/seriesdata/internal/config"
	"github.com/zot/seriesdata/internal/datafile"
	"github.com/zot/seriesdata/internal/luasource"
	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/source"
)

// workspace is the item list the configured series are bound to.
type workspace struct {
	cfg    *config.Config
	path   string
	format string
	list   *source.List
	script *luasource.Script // set for Lua sources
}

// newWorkspace prepares an empty list for path. An empty format is taken
// from the file extension.
func newWorkspace(cfg *config.Config, path, format string) (*workspace, error) {
	if path == "" {
		return nil, fmt.Errorf("no data file: use --data or [data] path")
	}
	format, err := datafile.FormatOf(path, format)
	if err != nil {
		return nil, err
	}
	ws := &workspace{cfg: cfg, path: path, format: format, list: source.NewList()}
	if format == datafile.FormatLua {
		ws.script = luasource.New(ws.list, cfg)
	}
	return ws, nil
}

// fill loads the data file into the list, replacing what it held.
func (ws *workspace) fill() error {
	if ws.script != nil {
		if err := ws.list.Reset(nil); err != nil {
			return err
		}
		return ws.script.DoFile(ws.path)
	}
	items, err := datafile.Load(ws.path, ws.format)
	if err != nil {
		return err
	}
	return ws.list.Reset(items)
}

func (ws *workspace) close() {
	if ws.script != nil {
		ws.script.Close()
	}
}

// dependents builds one dependent per configured series.
func dependents(cfg *config.Config) ([]*series.Dependent, error) {
	if len(cfg.Series) == 0 {
		return nil, fmt.Errorf("no series: use -x/-y or [[series]]")
	}
	deps := make([]*series.Dependent, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		deps = append(deps, &series.Dependent{
			Name:                 s.Name,
			XPath:                s.X,
			YPaths:               append([]string(nil), s.Y...),
			IsGroupedY:           s.Grouped,
			ListenPropertyChange: s.Listen,
		})
	}
	return deps, nil
}

// bindAll attaches deps to list in a fresh registry.
func bindAll(cfg *config.Config, list *source.List, deps []*series.Dependent) (*series.Registry, error) {
	reg := series.NewRegistry(cfg)
	for _, d := range deps {
		if _, err := reg.Bind(list, d); err != nil {
			return nil, fmt.Errorf("series %s: %w", d.Name, err)
		}
	}
	return reg, nil
}

// loadStatic loads the data then binds the series with one full pass each.
func loadStatic(args []string) (*config.Config, []*series.Dependent, int) {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, nil, 1
	}
	ws, err := newWorkspace(cfg, cfg.Data.Path, cfg.Data.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, nil, 1
	}
	defer ws.close()
	if err := ws.fill(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, nil, 1
	}
	deps, err := dependents(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, nil, 1
	}
	if _, err := bindAll(cfg, ws.list, deps); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, nil, 1
	}
	return cfg, deps, 0
}
