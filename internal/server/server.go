// Package server exposes runs, covariate tables, and validation reports
// over a read-only HTTP API.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/loonworks/sdm-cli/internal/model"
	"github.com/loonworks/sdm-cli/internal/store"
)

// Server serves pipeline state from the store.
type Server struct {
	store store.Store
}

// New creates a Server over the given store.
func New(st store.Store) *Server {
	return &Server{store: st}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Get("/runs/{id}/reports/{kind}", s.handleGetReport)
	r.Get("/covariates/{species}", s.handleGetCovariates)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status:  model.RunStatus(r.URL.Query().Get("status")),
		Species: r.URL.Query().Get("species"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}
	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	payload, err := s.store.GetReport(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (s *Server) handleGetCovariates(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.GetCovariates(r.Context(), chi.URLParam(r, "species"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Warn("server: request failed", zap.Error(err))
	writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
}
