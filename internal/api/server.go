// Package api provides the HTTP API server and handlers for the Allusion tag server.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/allusionapp/allusion-server/internal/metrics"
	"github.com/allusionapp/allusion-server/internal/ratelimit"
	"github.com/allusionapp/allusion-server/internal/service"
	"github.com/allusionapp/allusion-server/internal/sse"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Hierarchy     *service.HierarchyService
	Files         *service.FileService
	Search        *service.SearchService
	SavedSearches *service.SavedSearchService
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter is the part of the search index the health check reads.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Options configures optional server behaviour.
type Options struct {
	CORSOrigins []string
	// RateLimiter limits mutations per client. Nil disables limiting.
	RateLimiter *ratelimit.KeyedRateLimiter

	// Health check targets. Nil components are reported as not configured.
	Database Pinger
	Prefs    Pinger
	Index    DocumentCounter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	sseManager *sse.Manager
	router     chi.Router
	api        huma.API
	opts       Options
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		services:   services,
		sseManager: sseManager,
		router:     router,
		opts:       opts,
		logger:     logger,
	}
	s.setupMiddleware()

	config := huma.DefaultConfig("Allusion API", "1.0.0")
	config.Info.Description = "Tag hierarchy, file metadata and advanced search for an image library."
	s.api = humachi.New(router, config)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(metrics.Middleware())
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.opts.RateLimiter != nil {
		s.router.Use(RateLimitMiddleware(s.opts.RateLimiter, s.logger))
	}
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerTreeRoutes()
	s.registerTagRoutes()
	s.registerCollectionRoutes()
	s.registerSearchRoutes()
	s.registerFileRoutes()
	s.registerSavedSearchRoutes()

	if s.sseManager != nil {
		s.router.Get("/api/v1/events", sse.NewHandler(s.sseManager, s.logger).ServeHTTP)
	}
	s.router.Handle("/metrics", metrics.Handler())
}

// requestLogger logs each request at debug level with its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
