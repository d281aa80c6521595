package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/htol/bookstore/api"
	"github.com/htol/bookstore/config"
	"github.com/htol/bookstore/logger"
	"github.com/htol/bookstore/repo"
	"github.com/htol/bookstore/service"
	"github.com/htol/bookstore/telemetry"
)

const shutdownTimeout = 30 * time.Second

// Server serves the API over storage. The caller owns storage and closes it
// after ListenAndServe returns.
type Server struct {
	service *service.Service
	config  *config.Config
}

func NewServer(storage *repo.Repo, cfg *config.Config) *Server {
	return &Server{
		service: newService(storage, cfg),
		config:  cfg,
	}
}

func newService(storage *repo.Repo, cfg *config.Config) *service.Service {
	return service.New(storage,
		service.WithPageSize(cfg.Dashboard.PageSize),
		service.WithRecentSales(cfg.Dashboard.RecentSales),
	)
}

// Handler is the API router, traced when tracing is enabled.
func (s *Server) Handler() http.Handler {
	h := api.NewHandler(s.service)
	if s.config.Tracing.Enabled {
		h = telemetry.Middleware(s.config.Tracing.ServiceName)(h)
	}
	return h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.Port),
		Handler: s.Handler(),

		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", s.config.Server.Port, "url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port))
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we are told to stop or the server errors
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("Server stopped")
		return nil
	}
}
