package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zot/seriesdata/internal/export"
	"github.com/zot/seriesdata/internal/series"
)

func runExport(args []string) int {
	cfg, deps, code := loadStatic(args)
	if code != 0 {
		return code
	}
	if len(cfg.Args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: seriesdata export [options] OUT.parquet|OUT.arrow")
		return 1
	}
	out := cfg.Args[0]

	var err error
	switch strings.ToLower(filepath.Ext(out)) {
	case ".parquet":
		err = export.WriteParquet(out, deps...)
	case ".arrow":
		err = writeArrowFiles(out, deps)
	default:
		err = fmt.Errorf("unknown export format for %s", out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		return 1
	}
	cfg.Log(1, "Exported %d series to %s", len(deps), out)
	return 0
}

// writeArrowFiles writes one Arrow file per series. With several series the
// series name is inserted before the extension.
func writeArrowFiles(out string, deps []*series.Dependent) error {
	for _, d := range deps {
		path := out
		if len(deps) > 1 {
			ext := filepath.Ext(out)
			path = strings.TrimSuffix(out, ext) + "." + d.Name + ext
		}
		if err := writeArrowFile(path, d); err != nil {
			return err
		}
	}
	return nil
}

func writeArrowFile(path string, d *series.Dependent) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteArrow(f, d, nil); err != nil {
		f.Close()
		return fmt.Errorf("series %s: %w", d.Name, err)
	}
	return f.Close()
}
