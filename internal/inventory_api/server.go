// Package inventory_api serves the stock ledger over HTTP
package inventory_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/inventory_api/handler"
	"github.com/blood-inventory-ledger/internal/inventory_api/middleware"
	"github.com/blood-inventory-ledger/internal/inventory_api/service"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// Services are the dependencies of the HTTP handlers
type Services struct {
	Inventory service.InventoryService
	Analytics service.AnalyticsService
	Issuance  service.IssuanceService
	Journal   service.JournalService
}

// NewServer creates and configures the HTTP server
func NewServer(log *slog.Logger, cfg *config.Config, services Services) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var lim *limiter.Limiter
	if cfg.RateLimit.Enabled {
		var err error
		lim, err = middleware.NewLimiter(cfg.RateLimit.Rate)
		if err != nil {
			return nil, err
		}
	}

	cors, err := middleware.CORS(cfg.Server.CORSOrigins)
	if err != nil {
		return nil, err
	}

	httpRouter := gin.New()
	setupRouter(log, httpRouter, chain{
		cors: cors,
		auth: middleware.Auth(log, cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		lim:  lim,
	}, routes{
		inventory: handler.NewInventoryHandler(log, services.Inventory, cfg.Ledger.ExpiryWindowDays),
		analytics: handler.NewAnalyticsHandler(log, services.Analytics),
		issuance:  handler.NewIssuanceHandler(log, services.Issuance),
		movements: handler.NewMovementHandler(log, services.Journal),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}, nil
}

// Handler exposes the router, for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx is done
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
