// Package server wires the HTTP router for the signature relay.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inkwell-health/signature-relay/internal/config"
	"github.com/inkwell-health/signature-relay/internal/logger"
	"github.com/inkwell-health/signature-relay/internal/server/middleware"
	"github.com/inkwell-health/signature-relay/internal/session"
	"github.com/inkwell-health/signature-relay/internal/signatures/handlers"
)

type Server struct {
	config *config.RelayEnvironment
	logger *slog.Logger
	router *chi.Mux
	store  *session.Store
}

func NewServer(
	store *session.Store,
	cfg *config.RelayEnvironment,
	logger *slog.Logger,
) *Server {
	server := &Server{
		config: cfg,
		logger: logger,
		router: chi.NewRouter(),
		store:  store,
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

// Router exposes the configured router (used by httptest in integration
// tests).
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxRequestBodyBytes))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	// no global request timeout: poll requests legitimately block for up
	// to PollMaxTimeout; the server WriteTimeout is the backstop
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)

	sessionsHandler := handlers.NewSessionsHandler(s.store, s.config)

	s.router.Route("/signatures", func(r chi.Router) {
		r.Post("/sessions", sessionsHandler.HandleCreateSession)
		r.Get("/sessions/{sessionID}/info", sessionsHandler.HandleGetInfo)
		r.Get("/sessions/{sessionID}/poll", sessionsHandler.HandlePoll)
		r.Post("/sessions/{sessionID}/submit", sessionsHandler.HandleSubmit)
	})
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
