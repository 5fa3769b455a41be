package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tapegrade/tapegrade/internal/generator"
	"github.com/tapegrade/tapegrade/internal/store"
)

// Server provides the HTTP API over computed ratings.
type Server struct {
	store store.Store
	gen   *generator.Generator
	port  int
}

// New creates a new HTTP server.
func New(s store.Store, gen *generator.Generator, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store: s,
		gen:   gen,
		port:  port,
	}
}

// Handler returns the route mux. Split out so tests can drive it directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/shows", s.handleShows)
	mux.HandleFunc("/api/v1/recordings", s.handleRecordings)
	mux.HandleFunc("/api/v1/top", s.handleTop)
	mux.HandleFunc("/api/v1/generate", s.handleGenerate)
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("tapegrade server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleShows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	opts := store.ShowListOpts{Limit: queryInt(r, "limit", 100)}
	if mc := r.URL.Query().Get("min_confidence"); mc != "" {
		if v, err := strconv.ParseFloat(mc, 64); err == nil {
			opts.MinConfidence = v
		}
	}

	shows, err := s.store.ListShowRatings(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  shows,
		"count": len(shows),
	})
}

func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	recordings, err := s.store.ListRecordingRatings(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  recordings,
		"count": len(recordings),
	})
}

// handleTop returns high-confidence shows only, the same bar the dataset's
// top-shows list uses.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	shows, err := s.store.ListShowRatings(r.Context(), store.ShowListOpts{
		MinConfidence: 0.7,
		Limit:         queryInt(r, "limit", 100),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  shows,
		"count": len(shows),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ds, err := s.gen.Generate(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"metadata": ds.Metadata,
	})
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
