package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// defaultProject is used when a request names no project path
	defaultProject string
	// projectRoots bound caller-supplied project paths; empty allows any
	projectRoots   []string

	// Services
	authService        driving.AuthService // nil disables authentication
	indexService       driving.IndexService
	searchService      driving.SearchService
	correlationService driving.CorrelationService

	// Infrastructure health checks, keyed by name
	checks map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host               string
	Port               int
	Version            string
	DefaultProjectPath string
	ProjectRoots       []string // requests may only name paths under these; empty allows any
	AllowedOrigins     []string
	Logger             *slog.Logger // request and panic logs; nil uses slog.Default()
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server.
// authService may be nil, in which case every route is public.
func NewServer(
	cfg Config,
	authService driving.AuthService,
	indexService driving.IndexService,
	searchService driving.SearchService,
	correlationService driving.CorrelationService,
	checks map[string]Pinger,
) *Server {
	s := &Server{
		router:             http.NewServeMux(),
		version:            cfg.Version,
		defaultProject:     cfg.DefaultProjectPath,
		authService:        authService,
		indexService:       indexService,
		searchService:      searchService,
		correlationService: correlationService,
		checks:             checks,
	}
	for _, root := range cfg.ProjectRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			log.Printf("Ignoring project root %q: %v", root, err)
			continue
		}
		s.projectRoots = append(s.projectRoots, abs)
	}

	var handler http.Handler = s.router
	if len(cfg.AllowedOrigins) > 0 {
		handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	}
	handler = NewRecoveryMiddleware(cfg.Logger).Handler(handler)
	handler = NewLoggingMiddleware(cfg.Logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // page analysis can take a while
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	viewer := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Index endpoints
	s.router.Handle("POST /api/v1/index", admin(s.handleIndex))
	s.router.Handle("GET /api/v1/index", viewer(s.handleGetIndex))
	s.router.Handle("GET /api/v1/index/history", viewer(s.handleIndexHistory))

	// Search endpoints
	s.router.Handle("POST /api/v1/search", viewer(s.handleSearch))
	s.router.Handle("POST /api/v1/similar", viewer(s.handleSimilar))
	s.router.Handle("GET /api/v1/usage-graph", viewer(s.handleUsageGraph))

	// Correlation endpoints
	s.router.Handle("POST /api/v1/correlate", viewer(s.handleCorrelate))
	s.router.Handle("POST /api/v1/analyze/page", viewer(s.handleAnalyzePage))
	s.router.Handle("POST /api/v1/analyze/responsive", viewer(s.handleAnalyzeResponsive))
}

// Start serves until ctx is cancelled, then drains in-flight requests for up to 30 seconds
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
