package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/ecomap/pkg/observability"
	"github.com/matzehuels/ecomap/pkg/pipeline"
)

// Defaults for [Config].
const (
	DefaultAddr          = "127.0.0.1:8080"
	DefaultMaxUploadSize = 10 << 20
	DefaultUploadMemory  = 4 << 20
	DefaultSweepInterval = 10 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

// Config configures the HTTP server.
type Config struct {
	Addr           string
	MaxUploadSize  int64    // bytes per request body
	UploadMemory   int64    // upload bytes held in memory; the rest goes to temp files
	AllowedOrigins []string // CORS origins; "*" allows any
	SweepInterval  time.Duration
}

// Server serves the editor API.
type Server struct {
	cfg      Config
	sessions *Manager
	runner   *pipeline.Runner
	logger   *log.Logger
	router   chi.Router
}

// New creates a server over the given session manager. A nil runner
// renders without caching.
func New(cfg Config, sessions *Manager, runner *pipeline.Runner, logger *log.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.UploadMemory <= 0 {
		cfg.UploadMemory = DefaultUploadMemory
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{cfg: cfg, sessions: sessions, runner: runner, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(s.cors)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/upload", s.handleUpload)
			r.Post("/mapping", s.handleMapping)
			r.Post("/logos", s.handleAddLogos)
			r.Delete("/logos/{filename}", s.handleRemoveLogo)
			r.Post("/logos/{filename}/associate", s.handleAssociateLogo)
			r.Patch("/chart", s.handleUpdateChart)
			r.Route("/categories/{name}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateCategory)
				r.Post("/move", s.handleMove)
				r.Post("/resize", s.handleResize)
				r.Post("/nudge", s.handleNudge)
				r.Post("/columns", s.handleSetColumns)
				r.Post("/columns/cycle", s.handleCycleColumns)
			})
			r.Post("/layout", s.handleRelayout)
			r.Get("/snapshot", s.handleGetSnapshot)
			r.Put("/snapshot", s.handlePutSnapshot)
			r.Get("/export.{format}", s.handleExport)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully. It also sweeps expired sessions in the background.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, s.cfg.SweepInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs every request and reports it to the HTTP hooks.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		hooks.OnRequest(r.Context(), r.Method, route)
		hooks.OnResponse(r.Context(), r.Method, route, ww.Status(), time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Expose-Headers", "Content-Disposition")
		}
		if r.Method == http.MethodOptions && strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")) != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
