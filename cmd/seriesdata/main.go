// Package main is the entry point for seriesdata.
// This is a thin wrapper around the cli package.
package main

import (
	"os"

	"github.com/zot/seriesdata/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
