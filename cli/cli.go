// Package cli provides the command-line interface for seriesdata.
// It exports Run() and RunWithHooks() to allow extension by wrapper projects.
package cli

import (
	"fmt"
	"os"
)

// Version is reported by the version command and the MCP server.
const Version = "0.1.0"

// Hooks allows extending the CLI with additional commands.
type Hooks struct {
	// BeforeDispatch is called before command dispatch.
	// Return (handled=true, exitCode) to skip normal dispatch.
	BeforeDispatch func(command string, args []string) (handled bool, exitCode int)

	// CustomHelp returns additional help text to append.
	CustomHelp func() string

	// CustomVersion returns version info to append (optional).
	CustomVersion func() string
}

// Run executes the CLI with the given arguments.
// Returns exit code (0 = success, non-zero = error).
func Run(args []string) int {
	return RunWithHooks(args, nil)
}

// RunWithHooks executes CLI with extension hooks.
func RunWithHooks(args []string, hooks *Hooks) int {
	if len(args) < 1 {
		return runShow(args)
	}

	command := args[0]
	cmdArgs := args[1:]

	// Let hooks intercept first
	if hooks != nil && hooks.BeforeDispatch != nil {
		if handled, code := hooks.BeforeDispatch(command, cmdArgs); handled {
			return code
		}
	}

	switch command {
	case "show":
		return runShow(cmdArgs)
	case "export":
		return runExport(cmdArgs)
	case "script":
		return runScript(cmdArgs)
	case "serve":
		return runServe(cmdArgs)
	case "mcp":
		return runMCP(cmdArgs)
	case "help", "-h", "--help":
		printHelp(hooks)
		return 0
	case "version", "--version":
		printVersion(hooks)
		return 0
	default:
		// Check if it's a flag (starts with -)
		if len(command) > 0 && command[0] == '-' {
			return runShow(args)
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printHelp(hooks)
		return 1
	}
}

func printHelp(hooks *Hooks) {
	fmt.Println(`Series Data

Usage: seriesdata [command] [options] [args]

Commands:
  show            Print the columns of each series (default)
  export OUT      Write the columns to OUT (.parquet or .arrow)
  script FILE     Bind the series, run a Lua script against them, then show
  serve           Publish the series over HTTP and WebSocket
  mcp             Publish the series to an MCP client on stdio
  help            Show this help
  version         Show the version

Options:
  --config        TOML config file (default: config/config.toml)
  --data          Item file: .json, .toml or .lua
  --format        Item file format: json, toml, lua
  --watch         Reload the item file when it changes (serve, mcp)
  --name          Name of the ad-hoc series
  -x              X path of the ad-hoc series
  -y              Comma separated Y paths of the ad-hoc series
  --grouped       Y values are sequences
  --host          Listen address (default: 127.0.0.1)
  --port          Listen port (default: 8090)
  --flush         Batching window for area updates (default: 50ms)
  --store         Snapshot archive: memory, sqlite:PATH or postgres://...
  -v, -vv, -vvv   Verbosity

Environment:
  SERIES_DATA, SERIES_FORMAT, SERIES_WATCH, SERIES_HOST, SERIES_PORT,
  SERIES_FLUSH_INTERVAL, SERIES_STORE, SERIES_VERBOSITY

Examples:
  seriesdata show --data temps.json -x Time -y Min,Max
  seriesdata export --data temps.toml -x Day -y High out.parquet
  seriesdata script -x X -y Y feed.lua
  seriesdata serve --config config/config.toml --watch`)

	if hooks != nil && hooks.CustomHelp != nil {
		fmt.Println(hooks.CustomHelp())
	}
}

func printVersion(hooks *Hooks) {
	fmt.Println("Series Data v" + Version)
	if hooks != nil && hooks.CustomVersion != nil {
		fmt.Println(hooks.CustomVersion())
	}
}
