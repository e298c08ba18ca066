// Package server wires handlers, middleware, and routes into an HTTP server.
//
// This is the composition root: every dependency — database, token service,
// auth service, handlers — is constructed and connected here, so the rest of
// the codebase only ever receives what it needs through constructors.
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
	"github.com/go-chi/cors"

	"github.com/bishowshrestha9/code-fyp/internal/auth"
	"github.com/bishowshrestha9/code-fyp/internal/handler"
	"github.com/bishowshrestha9/code-fyp/internal/middleware"
	sqliteRepo "github.com/bishowshrestha9/code-fyp/internal/repository/sqlite"
	"github.com/bishowshrestha9/code-fyp/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port   int
	DBPath string

	// Production selects the cookie security attributes (Secure +
	// SameSite=None vs. Lax). It is the only mode switch in the auth flow.
	Production bool

	// FrontendURL is the origin the OAuth callback redirects to.
	FrontendURL string

	// CORSOrigins are the allowed cross-origin callers. Credentialed
	// requests forbid the * wildcard, so origins must be listed.
	CORSOrigins []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Server owns the router and the resources that must be released on
// shutdown (currently just the database).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the dependency graph:
//
//	sqlite.DB → TokenService ─┐
//	         └→ AuthService ──┴→ AuthHandler → routes
//
// Google login is optional: without client credentials the server starts
// and the /api/auth/google routes answer with a configuration error.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
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

	var google handler.IdentityProvider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		provider, err := auth.NewGoogleProvider(ctx,
			cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring Google provider: %w", err)
		}
		google = provider
	} else {
		logger.Warn("Google OAuth credentials not set — Google login is disabled")
	}

	s.setupRoutes(google)
	return s, nil
}

func (s *Server) setupRoutes(google handler.IdentityProvider) {
	tokens := auth.NewTokenService(s.db.Tokens())
	passwords := auth.NewPasswordService()
	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	authHandler := handler.NewAuthHandler(
		authService, google, s.config.FrontendURL, s.config.Production, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The frontend is hosted on a different origin and sends both the
	// Authorization header and the auth_token cookie, so credentials must
	// be allowed and the origin list explicit.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "ngrok-skip-browser-warning"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/register", authHandler.HandleRegister)
		r.Get("/auth/google", authHandler.HandleGoogleRedirect)
		r.Get("/auth/google/callback", authHandler.HandleGoogleCallback)

		// Protected — every request independently resolved against the
		// token store; no session cache.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Post("/logout", authHandler.HandleLogout)
			r.Put("/profile", authHandler.HandleUpdateProfile)
			r.Patch("/profile", authHandler.HandleUpdateProfile)
			r.Put("/profile/password", authHandler.HandleUpdatePassword)
			r.Patch("/profile/password", authHandler.HandleUpdatePassword)
		})
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// close the database.
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
			slog.Bool("production", s.config.Production),
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
