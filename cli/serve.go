package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zot/seriesdata/internal/config"
	"github.com/zot/seriesdata/internal/hotload"
	"github.com/zot/seriesdata/internal/mcp"
	"github.com/zot/seriesdata/internal/server"
	"github.com/zot/seriesdata/internal/storage"
)

// published is a running server with its data file and optional watcher.
type published struct {
	cfg     *config.Config
	srv     *server.Server
	ws      *workspace
	watcher *hotload.Watcher
	archive storage.Backend
}

func publish(args []string) (*published, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	ws, err := newWorkspace(cfg, cfg.Data.Path, cfg.Data.Format)
	if err != nil {
		return nil, err
	}
	if err := ws.fill(); err != nil {
		ws.close()
		return nil, err
	}
	deps, err := dependents(cfg)
	if err != nil {
		ws.close()
		return nil, err
	}

	p := &published{cfg: cfg, srv: server.New(cfg), ws: ws}
	if cfg.Storage.URL != "" {
		if p.archive, err = storage.Open(cfg.Storage.URL); err != nil {
			p.close()
			return nil, fmt.Errorf("storage: %w", err)
		}
		p.srv.SetArchive(p.archive)
	}
	for _, d := range deps {
		if err := p.srv.AddSeries(d, ws.list); err != nil {
			p.close()
			return nil, err
		}
	}

	if cfg.Data.Watch {
		p.watcher, err = hotload.New(cfg, func(string) error {
			return p.srv.Reload(ws.list, ws.fill)
		})
		if err == nil {
			err = p.watcher.Add(ws.path)
		}
		if err != nil {
			p.close()
			return nil, fmt.Errorf("watch %s: %w", ws.path, err)
		}
		p.watcher.Start()
	}
	return p, nil
}

func (p *published) close() {
	if p.watcher != nil {
		p.watcher.Stop()
	}
	p.srv.Close()
	if p.archive != nil {
		p.archive.Close()
	}
	p.ws.close()
}

func runServe(args []string) int {
	p, err := publish(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer p.close()

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}

func runMCP(args []string) int {
	p, err := publish(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer p.close()

	if err := mcp.ServeStdio(p.srv, Version); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}
