// Package api serves run summaries and triggers selection runs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"claimsift/app"
	"claimsift/domain/core"
	"claimsift/internal"
	"claimsift/internal/errors"
	"claimsift/internal/report"
	"claimsift/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Runner executes a selection run over a record source
type Runner interface {
	RunFromSource(ctx context.Context, reader ports.RecordReader, opts app.RunOptions) (*app.RunResult, error)
}

// ReaderFactory opens a record source by path
type ReaderFactory func(path string) ports.RecordReader

// Server is the HTTP surface. Runs are serialised: one pipeline at a time.
type Server struct {
	router   *chi.Mux
	runner   Runner
	repo     ports.RunRepository
	open     ReaderFactory
	defaults app.RunOptions
	dataFile string
	logger   *internal.Logger

	runMu sync.Mutex
}

// Config holds the defaults applied to POST /api/runs
type Config struct {
	DataFile string
	Defaults app.RunOptions
}

// NewServer creates a server and registers its routes
func NewServer(cfg Config, runner Runner, repo ports.RunRepository, open ReaderFactory, logger *internal.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		runner:   runner,
		repo:     repo,
		open:     open,
		defaults: cfg.Defaults,
		dataFile: cfg.DataFile,
		logger:   internal.OrDefault(logger),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Post("/", s.handleStartRun)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/report", s.handleRunReport)
	})
}

// ServeHTTP makes Server an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr until the server fails
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting claimsift API on %s", addr)
	return http.ListenAndServe(addr, s)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filters := ports.RunFilters{Limit: 20}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.ValidationError("limit must be a non-negative integer"))
			return
		}
		filters.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.ValidationError("offset must be a non-negative integer"))
			return
		}
		filters.Offset = n
	}

	runs, err := s.repo.ListRuns(r.Context(), filters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errors.WithCode(errors.CodeValidationError, err, "invalid run id"))
		return
	}
	run, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errors.WithCode(errors.CodeValidationError, err, "invalid run id"))
		return
	}
	run, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(report.HTML(run))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report.Markdown(run)))
}

// RunRequest overrides the server defaults for one run; zero values keep them
type RunRequest struct {
	DataFile  string   `json:"data_file"`
	TestRatio *float64 `json:"test_ratio,omitempty"`
	Seed      *int64   `json:"seed,omitempty"`
	Folds     int      `json:"folds,omitempty"`
	FitMode   string   `json:"fit_mode,omitempty"`
}

func (req RunRequest) options(defaults app.RunOptions) app.RunOptions {
	opts := defaults
	if req.TestRatio != nil {
		opts.Split.TestRatio = *req.TestRatio
	}
	if req.Seed != nil {
		opts.Split.Seed = *req.Seed
	}
	if req.Folds != 0 {
		opts.Folds = req.Folds
	}
	if req.FitMode != "" {
		opts.FitMode = req.FitMode
	}
	return opts
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.WithCode(errors.CodeValidationError, err, "invalid request body"))
			return
		}
	}
	path := req.DataFile
	if path == "" {
		path = s.dataFile
	}
	opts := req.options(s.defaults)
	opts.Source = path

	s.runMu.Lock()
	defer s.runMu.Unlock()

	result, err := s.runner.RunFromSource(r.Context(), s.open(path), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Summary)
}

// statusFor maps error codes onto HTTP status codes
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeValidationError, errors.CodeInvalidInput, errors.CodeEmptyInput,
		errors.CodeLengthMismatch, errors.CodeConfigInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
