package cli

import (
	"fmt"
	"os"

	"github.com/zot/seriesdata/internal/config"
	"github.com/zot/seriesdata/internal/datafile"
)

// runScript binds the series to an empty list before the script runs, so
// every item the script adds goes through incremental change handling.
func runScript(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	path := cfg.Data.Path
	if len(cfg.Args) > 0 {
		path = cfg.Args[0]
	}
	ws, err := newWorkspace(cfg, path, datafile.FormatLua)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer ws.close()

	deps, err := dependents(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	updates := make(map[string]int)
	for _, d := range deps {
		name := d.Name
		d.OnAreaChanged = func() { updates[name]++ }
	}
	if _, err := bindAll(cfg, ws.list, deps); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := ws.script.DoFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Script failed: %v\n", err)
		return 1
	}

	for _, d := range deps {
		cfg.Log(1, "Series %s: %d area updates", d.Name, updates[d.Name])
		if err := printSeries(os.Stdout, d); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}
