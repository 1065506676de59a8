package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zot/seriesdata/internal/protocol"
)

// handleList serves GET /series.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.ListResponse{Series: s.List()})
}

// handleSnapshot serves GET /series/{name}.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Snapshot(r.PathValue("name"))
	if errors.Is(err, protocol.ErrUnknownSeries) {
		writeJSON(w, http.StatusNotFound, protocol.ErrorMessage{Code: "not-found", Description: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, protocol.ErrorMessage{Code: "internal", Description: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
