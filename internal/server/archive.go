package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/zot/seriesdata/internal/protocol"
	"github.com/zot/seriesdata/internal/storage"
)

// archiveState remembers the digest of each series' last stored snapshot so
// unchanged snapshots are not rewritten.
type archiveState struct {
	mu      sync.Mutex
	digests map[string]uint64
	stores  int
}

// SetArchive makes every flush also store the flushed snapshots in b.
// Call it before publishing series.
func (s *Server) SetArchive(b storage.Backend) {
	s.archive = b
	s.archived = &archiveState{digests: make(map[string]uint64)}
}

// ArchiveStores returns how many records have been written to the archive.
func (s *Server) ArchiveStores() int {
	if s.archived == nil {
		return 0
	}
	s.archived.mu.Lock()
	defer s.archived.mu.Unlock()
	return s.archived.stores
}

// flush is the batcher's callback.
func (s *Server) flush(names []string) {
	s.handler.Broadcast(names)
	s.archiveSnapshots(names)
}

func (s *Server) archiveAll() {
	if s.archive == nil {
		return
	}
	var names []string
	for _, info := range s.List() {
		names = append(names, info.Name)
	}
	s.archiveSnapshots(names)
}

func (s *Server) archiveSnapshots(names []string) {
	if s.archive == nil {
		return
	}
	s.archived.mu.Lock()
	defer s.archived.mu.Unlock()
	for _, name := range names {
		snap, err := s.Snapshot(name)
		if err != nil {
			continue
		}
		data, err := json.Marshal(snap)
		if err != nil {
			s.Log(0, "Archive %s: %v", name, err)
			continue
		}
		digest := xxhash.Sum64(data)
		if last, ok := s.archived.digests[name]; ok && last == digest {
			continue
		}
		rec := &storage.Record{Series: name, Saved: time.Now().UTC(), Points: snap.Points, Data: data}
		if err := s.archive.Store(rec); err != nil {
			s.Log(0, "Archive %s: %v", name, err)
			continue
		}
		s.archived.digests[name] = digest
		s.archived.stores++
		s.Log(3, "Archived %s (%d points)", name, snap.Points)
	}
}

// handleArchiveList serves GET /archive.
func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, protocol.ErrorMessage{Code: "no-archive", Description: "archiving is disabled"})
		return
	}
	names, err := s.archive.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, protocol.ErrorMessage{Code: "internal", Description: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"series": names})
}

// handleArchived serves GET /archive/{name}.
func (s *Server) handleArchived(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, protocol.ErrorMessage{Code: "no-archive", Description: "archiving is disabled"})
		return
	}
	rec, err := s.archive.Load(r.PathValue("name"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, protocol.ErrorMessage{Code: "not-found", Description: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, protocol.ErrorMessage{Code: "internal", Description: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
