package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/value"
)

var (
	linearColor    = color.New(color.FgGreen)
	nonLinearColor = color.New(color.FgYellow, color.Bold)
	titleColor     = color.New(color.Bold)
)

func runShow(args []string) int {
	_, deps, code := loadStatic(args)
	if code != 0 {
		return code
	}
	for _, d := range deps {
		if err := printSeries(os.Stdout, d); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

// printSeries writes d's columns as a table followed by its linearity.
func printSeries(w io.Writer, d *series.Dependent) error {
	titleColor.Fprintf(w, "%s (%d points, x: %s)\n", d.Name, d.PointsCount, d.XValueType)

	table := tablewriter.NewWriter(w)
	headers := []string{"Index", xHeader(d)}
	if d.IsGroupedY {
		headers = append(headers, strings.Join(d.YPaths, "|"))
	} else {
		headers = append(headers, d.YPaths...)
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i := 0; i < d.PointsCount; i++ {
		row := []string{formatFloat(d.XIndexedList[i]), formatX(d, i)}
		if d.IsGroupedY {
			row = append(row, formatGroup(d.YDoubleValues[i]))
		} else {
			for _, col := range d.YDoubleValues {
				row = append(row, formatFloat(col[i]))
			}
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if d.IsLinearData {
		linearColor.Fprintln(w, "linear")
	} else {
		nonLinearColor.Fprintln(w, "non-linear")
	}
	fmt.Fprintln(w)
	return nil
}

func xHeader(d *series.Dependent) string {
	if d.XPath == "" {
		return "X"
	}
	return d.XPath
}

func formatX(d *series.Dependent, i int) string {
	switch d.XValueType {
	case value.KindString:
		return d.XStringValues[i]
	case value.KindDateTime:
		return d.XDateTimeValues[i].Format(time.RFC3339)
	}
	return formatFloat(d.XDoubleValues[i])
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "-"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatGroup(g []float64) string {
	parts := make([]string, len(g))
	for i, f := range g {
		parts[i] = formatFloat(f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
