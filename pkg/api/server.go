// Package api serves plan generation over HTTP with the same request and error
// shapes as the web front end: POST /api/plan returns a plan or {"detail": ...}.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/openai"
	"github.com/korjavin/fridgeflow/pkg/planner"
)

const maxBodyBytes = 64 << 10

// PlanService generates plans
type PlanService interface {
	Generate(ctx context.Context, req models.PlanRequest) (*models.Plan, error)
}

// Server is the HTTP API
type Server struct {
	planner PlanService
	logger  *logger.Logger
	server  *http.Server
}

// New creates the API server listening on addr
func New(addr string, planService PlanService) *Server {
	s := &Server{
		planner: planService,
		logger:  logger.New("api"),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes wrapped in the logging and recovery middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/plan", s.handlePlan)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.recoverer(s.logging(mux))
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening on %s", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	req := models.PlanRequest{
		TimeLimitMin: planner.DefaultTimeLimitMin,
		Mode:         models.ModeHeuristic,
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	plan, err := s.planner.Generate(r.Context(), req)
	if err != nil {
		status, detail := classify(err)
		s.logger.Warn("Plan request failed (%d): %v", status, err)
		writeDetail(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// classify maps planner errors to a status code and user-facing detail
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, openai.ErrNotConfigured),
		errors.Is(err, planner.ErrNoIngredients):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, fmt.Sprintf("LLM error: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic serving %s: %v", r.URL.Path, rec)
				writeDetail(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
