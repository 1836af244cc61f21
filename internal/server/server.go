// Package server exposes the reconstructed trade document over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"tradelens/internal/store"
	"tradelens/internal/view"
)

// Server serves the dashboard API. The document is rebuilt lazily through
// the staleness cache, so reads between ingestion runs are cheap.
type Server struct {
	store store.Store
	cache *view.Cache
	log   *slog.Logger
}

func New(st store.Store) *Server {
	return &Server{
		store: st,
		cache: view.NewCache(st),
		log:   slog.Default(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/trade-data", s.handleTradeData).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.Use(s.logRequests, allowCORS)
	return r
}

func (s *Server) handleTradeData(w http.ResponseWriter, r *http.Request) {
	doc, err := s.cache.Get(r.Context())
	if err != nil {
		s.log.Error("trade-data rebuild failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "rebuild failed"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.Version(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": version})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path)
	})
}

// allowCORS mirrors the dashboard's read-only access policy: any origin,
// GET only.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
