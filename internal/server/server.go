// package server contains middleware & handlers for the lecture catalog web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lectures/internal/repositories"
	"github.com/desertthunder/lectures/internal/search"
	"github.com/desertthunder/lectures/internal/services"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/desertthunder/lectures/internal/tasks"
	"github.com/desertthunder/lectures/internal/web"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                        // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler)    // Handle registers a handler for the specified method and path
	HandleFunc(method, path string, fn http.HandlerFunc) // HandleFunc registers a function for the specified method and path
	Group(fn func(Router))                               // Group scopes middleware to the routes registered in fn
	Route(pattern string, fn func(Router))               // Route mounts the routes registered in fn under pattern
	ServeHTTP(w http.ResponseWriter, r *http.Request)    // ServeHTTP implements http.Handler for the entire router
}

var _ Router = (*BasicRouter)(nil)

const (
	recentLectures  = 6
	shutdownTimeout = 10 * time.Second
	maxUploadBytes  = 32 << 20
)

// Server is the lecture catalog web application.
type Server struct {
	config   *shared.Config
	logger   *log.Logger
	renderer *web.Renderer
	sessions *Sessions
	limiter  *IPLimiter
	router   *BasicRouter

	users    *repositories.UserRepository
	engine   *search.Engine
	lectures *tasks.LectureManager
	taxonomy *tasks.TaxonomyManager
	catalog  *tasks.Catalog
}

// New wires the application's routes over db, using fetcher for video metadata.
func New(cfg *shared.Config, db *shared.Database, fetcher services.Fetcher, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		renderer: renderer,
		sessions: NewSessions(cfg.Credentials.Session.Secret, !cfg.Server.IsDevelopment()),
		limiter:  NewIPLimiter(cfg.Server.LoginRatePerMinute),
		users:    repositories.NewUserRepository(db),
		engine:   search.NewEngine(db),
		lectures: tasks.NewLectureManager(db, fetcher, shared.WithLogger(logger, "component", "lectures")),
		taxonomy: tasks.NewTaxonomyManager(db, shared.WithLogger(logger, "component", "taxonomy")),
		catalog:  tasks.NewCatalog(db, shared.WithLogger(logger, "component", "catalog")),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *BasicRouter {
	r := NewBasicRouter()
	r.Use(RequestID, RequestLogger(s.logger), middleware.Recoverer, LoadPrincipal(s.sessions, s.users, s.logger))

	r.Handle(http.MethodGet, "/static/*", web.Static())
	r.HandleFunc(http.MethodGet, "/healthz", s.handleHealth)
	r.HandleFunc(http.MethodGet, "/", s.handleHome)
	r.HandleFunc(http.MethodGet, "/search", s.handleSearchPage)

	r.Route("/api", func(api Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		api.HandleFunc(http.MethodGet, "/search", s.handleAPISearch)
	})

	r.HandleFunc(http.MethodGet, "/login", s.handleLoginPage)
	r.Group(func(g Router) {
		g.Use(s.limiter.Middleware(s.logger))
		g.HandleFunc(http.MethodPost, "/login", s.handleLogin)
	})
	r.HandleFunc(http.MethodGet, "/logout", s.handleLogout)

	r.Route("/admin", func(admin Router) {
		admin.Use(RequireAuth(s.sessions, s.logger))

		admin.HandleFunc(http.MethodGet, "/lectures/new", s.handleNewLecturePage)
		admin.HandleFunc(http.MethodPost, "/lectures/new", s.handleCreateLecture)
		admin.HandleFunc(http.MethodGet, "/lectures/{id}/edit", s.handleEditLecturePage)
		admin.HandleFunc(http.MethodPost, "/lectures/{id}/edit", s.handleUpdateLecture)

		admin.HandleFunc(http.MethodGet, "/metadata", s.handleMetadataPage)
		admin.HandleFunc(http.MethodPost, "/metadata", s.handleCreateTerm)

		admin.HandleFunc(http.MethodGet, "/data", s.handleDataPage)
		admin.HandleFunc(http.MethodGet, "/data/export", s.handleExport)
		admin.HandleFunc(http.MethodPost, "/data/import", s.handleImport)
		admin.HandleFunc(http.MethodPost, "/data/reset", s.handleReset)
	})

	return r
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr, "env", s.config.Server.Env)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
