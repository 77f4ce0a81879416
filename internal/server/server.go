// Package server sets up the HTTP server, router, and all route
// definitions. It is the composition root: every dependency — database,
// token service, services, handlers — is wired here, and main.go only has
// to create a Config and call Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/urfit-server/internal/auth"
	"github.com/sakif/urfit-server/internal/handler"
	"github.com/sakif/urfit-server/internal/middleware"
	sqliteRepo "github.com/sakif/urfit-server/internal/repository/sqlite"
	"github.com/sakif/urfit-server/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// Coordinator seed account. Registration only creates members, so the
	// first coordinator has to come from configuration. Empty email
	// disables seeding.
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency chain assembled:
//
//	sqlite.DB → services (auth, challenge, enrollment) → handlers → routes
//
// Services receive the repository interfaces, handlers receive services;
// no layer reaches past its neighbour.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, wires the dependency graph, and maps
// routes.
//
// ROUTE STRUCTURE:
//
//	POST /auth/register              → create member account
//	POST /auth/login                 → issue session token
//	POST /auth/logout                → clear session cookie
//	GET  /healthz                    → liveness probe
//	GET  /metrics                    → Prometheus scrape endpoint
//	GET  /api/me                     → current user          (auth)
//	GET  /api/me/challenges          → joined challenges     (auth)
//	GET  /api/users                  → account listing       (coordinator)
//	GET  /api/challenges             → list challenges       (auth)
//	GET  /api/challenges/{id}        → single challenge      (auth)
//	POST /api/challenges             → create challenge      (coordinator)
//	POST /api/challenges/{id}/join   → self-join             (auth)
//	POST /api/enrollments            → enroll a user         (coordinator)
func (s *Server) setupRoutes() error {
	// Global middleware, in order: request ID and real IP first so the
	// logger and limiter see them, then panic recovery, then logging and
	// metrics around everything.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics())

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// The sqlite DB implements both repository interfaces.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	challengeService := service.NewChallengeService(s.db, s.db, s.logger)
	enrollmentService := service.NewEnrollmentService(s.db, s.db, s.logger)

	if err := authService.SeedCoordinator(context.Background(),
		s.config.AdminName, s.config.AdminEmail, s.config.AdminPassword); err != nil {
		return fmt.Errorf("seeding coordinator account: %w", err)
	}

	authHandler := handler.NewAuthHandler(authService, s.logger)
	challengeHandler := handler.NewChallengeHandler(challengeService, s.logger)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, s.logger)

	// Operational endpoints — unauthenticated, unmetered.
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", middleware.MetricsHandler())

	// Auth routes: rate-limited per IP — login is the endpoint worth
	// brute forcing.
	s.router.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(1, 5))
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// API routes: everything requires a valid session. Role gates
	// (coordinator-only operations) are enforced in the service layer so
	// they hold for every caller, not just this router.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)
		r.Get("/me/challenges", challengeHandler.HandleListJoined)
		r.Get("/users", authHandler.HandleListUsers)

		r.Get("/challenges", challengeHandler.HandleList)
		r.Get("/challenges/{id}", challengeHandler.HandleGetByID)
		r.Post("/challenges", challengeHandler.HandleCreate)
		r.Post("/challenges/{id}/join", enrollmentHandler.HandleJoin)

		r.Post("/enrollments", enrollmentHandler.HandleEnrollUser)
	})

	return nil
}

// Start starts the HTTP server and blocks until shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections
// 2. Wait up to 30s for in-flight requests
// 3. Close the database (deferred — runs even on panic)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
