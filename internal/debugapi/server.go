// Package debugapi is a small read-only HTTP introspection server for
// a running replay: an operator can watch a live RangeTracker's
// highest_offset, acked_from_zero, and first_unmarked_range without
// instrumenting the replay itself. It is ambient tooling around the
// core, not one of the QUIC/HTTP3 collaborators spec.md places out of
// scope for the tracker itself.
package debugapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gaby/rangetracker/internal/rangetracker"
)

type Server struct {
	mu       sync.RWMutex
	trackers map[string]*rangetracker.RangeTracker
	mux      *http.ServeMux
}

func New() *Server {
	s := &Server{trackers: make(map[string]*rangetracker.RangeTracker)}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	return s
}

// Set registers (or replaces) the tracker exposed under id. Callers
// must stop mutating a tracker from their own goroutine before
// calling Set with it, same as any other handoff of a single-owner
// RangeTracker.
func (s *Server) Set(id string, tr *rangetracker.RangeTracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackers[id] = tr
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":   true,
			"time": time.Now().Format(time.RFC3339),
		})
	})

	s.mux.HandleFunc("/trackers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		s.mu.RLock()
		ids := make([]string, 0, len(s.trackers))
		for id := range s.trackers {
			ids = append(ids, id)
		}
		s.mu.RUnlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"trackers": ids})
	})

	s.mux.HandleFunc("/trackers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id := r.PathValue("id")
		s.mu.RLock()
		tr, ok := s.trackers[id]
		s.mu.RUnlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown tracker"})
			return
		}
		gapOffset, gapLength, hasGap := tr.FirstUnmarkedRange()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tracker_id":       id,
			"highest_offset":   tr.HighestOffset(),
			"acked_from_zero":  tr.AckedFromZero(),
			"first_gap_offset": gapOffset,
			"first_gap_length": gapLength,
			"fully_covered":    !hasGap,
		})
	})
}

// ListenAndServe starts the introspection server on addr. It blocks
// until the server stops or errors.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	return srv.ListenAndServe()
}
