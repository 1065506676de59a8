// Package server publishes series over HTTP and WebSocket.
//
// All registry and source operations are funneled through one ChanSvc;
// connection goroutines and the area batcher only reach series state
// through it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/zot/seriesdata/internal/config"
	"github.com/zot/seriesdata/internal/protocol"
	"github.com/zot/seriesdata/internal/series"
	"github.com/zot/seriesdata/internal/source"
	"github.com/zot/seriesdata/internal/storage"
)

// ErrClosed is returned by operations on a closed server.
var ErrClosed = errors.New("server closed")

// Server owns a registry and the dependents it publishes.
type Server struct {
	config   *config.Config
	svc      ChanSvc
	registry *series.Registry
	deps     map[string]*series.Dependent
	names    []string
	batcher  *protocol.AreaBatcher
	handler  *protocol.Handler
	ws       *WebSocketEndpoint
	archive  storage.Backend
	archived *archiveState
	svcMu    sync.RWMutex // write-held only while stopping svc
	stopped  bool
}

// New creates a server and starts its executor.
func New(cfg *config.Config) *Server {
	s := &Server{
		config:   cfg,
		svc:      make(ChanSvc),
		registry: series.NewRegistry(cfg),
		deps:     make(map[string]*series.Dependent),
	}
	RunSvc(s.svc)
	s.ws = NewWebSocketEndpoint(cfg)
	s.handler = protocol.NewHandler(s, protocol.NewWatches(), s.ws)
	s.handler.SetVerbosity(cfg.Verbosity())
	s.ws.SetHandler(s.handler)
	s.batcher = protocol.NewAreaBatcher(cfg.Server.FlushInterval.Duration(), s.flush)
	return s
}

// Log logs a message via the config.
func (s *Server) Log(level int, format string, args ...interface{}) {
	s.config.Log(level, format, args...)
}

// call runs code on the executor and waits for it. It fails with ErrClosed
// once the executor has been stopped.
func call[T any](s *Server, code func() (T, error)) (T, error) {
	s.svcMu.RLock()
	defer s.svcMu.RUnlock()
	if s.stopped {
		var zero T
		return zero, ErrClosed
	}
	return SvcSync(s.svc, code)
}

// Exec runs fn on the executor. Hosts mutate sources through Exec so change
// events are applied in order with every other series operation.
func (s *Server) Exec(fn func() error) error {
	_, err := call(s, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// AddSeries binds d to src and publishes it under d.Name.
func (s *Server) AddSeries(d *series.Dependent, src source.Source) error {
	return s.Exec(func() error {
		if _, ok := s.deps[d.Name]; ok {
			return fmt.Errorf("duplicate series %q", d.Name)
		}
		name := d.Name
		d.OnAreaChanged = func() { s.batcher.Mark(name) }
		if _, err := s.registry.Bind(src, d); err != nil {
			return err
		}
		s.deps[name] = d
		s.names = append(s.names, name)
		s.Log(1, "Series %s bound: x=%q y=%v points=%d", name, d.XPath, d.YPaths, d.PointsCount)
		return nil
	})
}

// RemoveSeries detaches a series and stops publishing it.
func (s *Server) RemoveSeries(name string) error {
	return s.Exec(func() error {
		d, ok := s.deps[name]
		if !ok {
			return fmt.Errorf("%w: %s", protocol.ErrUnknownSeries, name)
		}
		delete(s.deps, name)
		s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
		return s.registry.Detach(d)
	})
}

// Registry returns the registry. Use it only inside Exec.
func (s *Server) Registry() *series.Registry {
	return s.registry
}

// List implements protocol.Backend.
func (s *Server) List() []protocol.SeriesInfo {
	infos, _ := call(s, func() ([]protocol.SeriesInfo, error) {
		infos := make([]protocol.SeriesInfo, 0, len(s.names))
		for _, name := range s.names {
			infos = append(infos, protocol.InfoOf(s.deps[name]))
		}
		return infos, nil
	})
	return infos
}

// Snapshot implements protocol.Backend.
func (s *Server) Snapshot(name string) (*protocol.Snapshot, error) {
	return call(s, func() (*protocol.Snapshot, error) {
		d, ok := s.deps[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", protocol.ErrUnknownSeries, name)
		}
		return protocol.SnapshotOf(d), nil
	})
}

// Refresh implements protocol.Backend. It regenerates every series sharing
// the named series' source.
func (s *Server) Refresh(name string) error {
	return s.Exec(func() error {
		d, ok := s.deps[name]
		if !ok {
			return fmt.Errorf("%w: %s", protocol.ErrUnknownSeries, name)
		}
		h, ok := d.Handle()
		if !ok {
			return series.ErrNotAttached
		}
		return s.registry.Refresh(h)
	})
}

// RefreshAll regenerates every published source.
func (s *Server) RefreshAll() error {
	return s.Exec(func() error {
		var errs []error
		for _, c := range s.registry.Caches() {
			errs = append(errs, s.registry.Refresh(c.Handle()))
		}
		return errors.Join(errs...)
	})
}

// Reload runs fill on the executor and then regenerates every series bound
// to src. fill typically resets src with freshly loaded items.
func (s *Server) Reload(src source.Source, fill func() error) error {
	return s.Exec(func() error {
		if err := fill(); err != nil {
			return err
		}
		h, err := s.registry.Register(src)
		if err != nil {
			return err
		}
		return s.registry.Refresh(h)
	})
}

// Flush pushes pending area changes to watchers now.
func (s *Server) Flush() {
	s.batcher.FlushNow()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.ws.HandleWebSocket)
	mux.HandleFunc("GET /series", s.handleList)
	mux.HandleFunc("GET /series/{name}", s.handleSnapshot)
	mux.HandleFunc("GET /archive", s.handleArchiveList)
	mux.HandleFunc("GET /archive/{name}", s.handleArchived)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}
	s.Log(1, "Listening on %s", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	}
}

// Close pushes pending changes, archives every series, detaches them and
// stops the executor. Later calls do nothing.
func (s *Server) Close() {
	s.batcher.FlushNow()
	s.archiveAll()
	_ = s.Exec(func() error {
		for _, name := range s.names {
			_ = s.registry.Detach(s.deps[name])
		}
		return nil
	})
	s.batcher.Clear()

	s.svcMu.Lock()
	defer s.svcMu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.svc)
	}
}
