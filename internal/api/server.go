// Package api exposes the normalized analysis records to the browser
// dashboard over HTTP. It is data plumbing only; rendering stays in the
// frontend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/d-bias/dbias-go/internal/adapters/history"
	"github.com/d-bias/dbias-go/internal/core"
	"github.com/d-bias/dbias-go/internal/logging"
	"github.com/d-bias/dbias-go/internal/service"
)

// maxUploadBytes bounds analyze uploads routed through the server.
const maxUploadBytes = 256 << 20

// Server serves the dashboard API.
type Server struct {
	router   chi.Router
	pipeline *service.Pipeline
	log      *logging.Logger
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(log *logging.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer creates an API server around a pipeline.
func NewServer(pipeline *service.Pipeline, opts ...ServerOption) *Server {
	s := &Server{
		pipeline: pipeline,
		log:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	// CORS for the browser dashboard
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/analysis/latest", s.handleLatest)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{analysisID}", s.handleHistoryRecord)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
				"bytes", ww.BytesWritten(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLatest returns the most recent analysis: backend first, local
// cache as fallback. An empty pipeline answers 404, not 500; the
// dashboard shows its empty state on that.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	result, err := s.pipeline.Latest(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "no analysis available yet")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleAnalyze accepts a multipart upload, spools it to disk and runs
// it through the pipeline.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "expected multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	tmpPath, cleanup, err := spoolUpload(file, header.Filename)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storing upload: "+err.Error())
		return
	}
	defer cleanup()

	req := service.AnalyzeRequest{
		FilePath:    tmpPath,
		RunSummary:  r.FormValue("run_gemini") == "true",
		ReturnPlots: r.FormValue("return_plots"),
	}
	if excluded := r.FormValue("excluded"); excluded != "" {
		req.Excluded = splitCSV(excluded)
	}

	result, err := s.pipeline.Analyze(r.Context(), req)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	list, err := s.pipeline.History(r.Context(), limit)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if list == nil {
		list = []history.Summary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"analyses": list})
}

func (s *Server) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "analysisID")
	result, err := s.pipeline.HistoryRecord(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// respondDomainError maps pipeline errors onto HTTP statuses.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		status = http.StatusInternalServerError
	}
	s.log.Error("request failed", "error", err.Error(), "status", status)
	respondError(w, status, s.log.Sanitize(err.Error()))
}

// spoolUpload writes the uploaded stream to a temp file the pipeline
// can re-read, returning the path and a cleanup func.
func spoolUpload(file io.Reader, name string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "dbias-upload-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(name))
	out, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		cleanup()
		return "", nil, err
	}
	if err := out.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// httpStatusForDomainError maps the error taxonomy onto response codes.
func httpStatusForDomainError(err error) (int, bool) {
	var de *core.DomainError
	if !errors.As(err, &de) || de == nil {
		return 0, false
	}

	switch de.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatCanceled:
		return 499, true // client closed request
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout, true
	case core.ErrCatNetwork, core.ErrCatHTTP, core.ErrCatMalformed:
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, true
	}
}
