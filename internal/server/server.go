// Package server exposes the engine's runtime surface over HTTP:
// health, policy config, active registrations, recent alerts, and
// counters. It is a local operations API, not the product API.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/proximity-cli/internal/engine"
	"github.com/sells-group/proximity-cli/internal/model"
)

// Server wraps the chi router over a running engine.
type Server struct {
	eng *engine.Engine
	mux *chi.Mux
}

// New builds the router.
func New(eng *engine.Engine) *Server {
	s := &Server{eng: eng}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPatch, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Patch("/config", s.handlePatchConfig)
		r.Get("/registrations", s.handleRegistrations)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/stats", s.handleStats)
		r.Post("/refresh", s.handleRefresh)
	})

	s.mux = r
	return s
}

// Handler returns the router for mounting into an http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Config())
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch engine.ConfigPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	merged, err := s.eng.UpdateConfig(patch)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (s *Server) handleRegistrations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Active())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	alerts, err := s.eng.History().Recent(r.Context(), limit)
	if err != nil {
		zap.L().Error("server: list alerts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []model.ProximityAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Stats())
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.eng.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
