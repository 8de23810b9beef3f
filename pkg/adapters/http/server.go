// Package http exposes run records and live step events over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/aretw0/studioflow/internal/logging"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// RunRequest is the body of POST /runs.
type RunRequest struct {
	WorkflowPath    string `json:"workflow_path"`
	MeasuresOnly    bool   `json:"measures_only,omitempty"`
	PostProcessOnly bool   `json:"postprocess_only,omitempty"`
}

// Launcher starts a run in the background and returns its ID. The hooks
// must be attached to the run so its events reach subscribers.
type Launcher interface {
	Launch(ctx context.Context, req RunRequest, hooks domain.LifecycleHooks) (string, error)
}

// Server serves the run API.
type Server struct {
	Store    ports.RunStore
	Launcher Launcher
	Streams  *StreamManager
	Metrics  http.Handler
	Version  string
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLauncher enables POST /runs.
func WithLauncher(l Launcher) Option {
	return func(s *Server) {
		s.Launcher = l
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server reading runs from store.
func NewServer(store ports.RunStore, opts ...Option) *Server {
	s := &Server{
		Store:   store,
		Streams: NewStreamManager(),
		Version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Post("/", s.StartRun)
		r.Get("/{id}", s.GetRun)
		r.Delete("/{id}", s.DeleteRun)
		r.Get("/{id}/events", s.SubscribeEvents)
	})
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}
	return enableCORS(r)
}

// NewHandler is shorthand for NewServer(store, opts...).Handler().
func NewHandler(store ports.RunStore, opts ...Option) http.Handler {
	return NewServer(store, opts...).Handler()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "studioflow",
		"version": s.Version,
	})
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "list runs", err)
		return
	}
	sort.Strings(ids)
	s.writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		s.fail(w, http.StatusInternalServerError, "load run", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, http.StatusInternalServerError, "delete run", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartRun handles POST /runs.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	if s.Launcher == nil {
		http.Error(w, "run submission is disabled", http.StatusNotImplemented)
		return
	}
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("StartRun: invalid request body", "err", err)
		return
	}
	if req.WorkflowPath == "" {
		http.Error(w, "workflow_path is required", http.StatusBadRequest)
		return
	}
	if req.MeasuresOnly && req.PostProcessOnly {
		http.Error(w, "measures_only and postprocess_only are mutually exclusive", http.StatusBadRequest)
		return
	}

	id, err := s.Launcher.Launch(r.Context(), req, s.Streams.Hooks())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "launch run", err)
		return
	}
	s.logger.Info("run submitted", "run_id", id, "workflow", req.WorkflowPath)
	w.Header().Set("Location", "/runs/"+id)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// SubscribeEvents handles GET /runs/{id}/events as a server-sent event stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	runID := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, op string, err error) {
	http.Error(w, fmt.Sprintf("%s: %v", op, err), status)
	s.logger.Error(op+" failed", "err", err)
}
