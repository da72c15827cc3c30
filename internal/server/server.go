// Package server exposes chord sheets over a JSON HTTP API.
//
// The API is a thin layer over [store.Store] and [pipeline.Runner]: handlers
// decode sheet records, apply the same sheet operations the CLI uses, save
// the result, and export through the shared pipeline so downloads match
// `fretsheet export` byte for byte.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/sheets
//	POST   /api/sheets
//	GET    /api/sheets/{id}
//	PUT    /api/sheets/{id}
//	DELETE /api/sheets/{id}
//	POST   /api/sheets/{id}/duplicate
//	PUT    /api/sheets/{id}/grid
//	POST   /api/sheets/{id}/diagrams
//	PUT    /api/sheets/{id}/diagrams/{index}
//	DELETE /api/sheets/{id}/diagrams/{index}
//	DELETE /api/sheets/{id}/diagrams
//	GET    /api/sheets/{id}/slots?mode=interactive|export
//	GET    /api/sheets/{id}/export.{ext}?style=&scale=
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/observability"
	"github.com/matzehuels/fretsheet/pkg/pipeline"
	"github.com/matzehuels/fretsheet/pkg/store"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	requestTimeout    = 60 * time.Second
)

// Server serves the sheet API.
type Server struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New builds a server over st. A nil runner exports without caching.
func New(st store.Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{store: st, runner: runner, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/sheets", func(r chi.Router) {
		r.Get("/", s.handleListSheets)
		r.Post("/", s.handleCreateSheet)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSheet)
			r.Put("/", s.handlePutSheet)
			r.Delete("/", s.handleDeleteSheet)
			r.Post("/duplicate", s.handleDuplicateSheet)
			r.Put("/grid", s.handleSetGrid)
			r.Get("/slots", s.handleSlots)
			r.Get("/export.{ext}", s.handleExport)

			r.Post("/diagrams", s.handleAddDiagram)
			r.Delete("/diagrams", s.handleClearDiagrams)
			r.Put("/diagrams/{index}", s.handleReplaceDiagram)
			r.Delete("/diagrams/{index}", s.handleRemoveDiagram)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return nil
}

// instrument reports every request to the registered HTTP hooks under its
// route pattern rather than the raw path. Both hooks fire after routing, as
// the pattern is unknown before.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)

		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, route)
		hooks.OnResponse(r.Context(), r.Method, route, status, dur)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
