// Package api exposes the registry over HTTP. It is a thin boundary layer:
// all semantics live in the registry, the handlers only translate requests
// and error kinds.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lanewatch/lanewatch/internal/config"
	"github.com/lanewatch/lanewatch/internal/registry"
)

// Server is the HTTP API server.
type Server struct {
	e      *echo.Echo
	cfg    *config.Config
	logger config.Logger
}

// NewServer creates the API server and wires the routes.
func NewServer(cfg *config.Config, logger config.Logger, reg registry.Registry) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "lanewatch-api",
		})
	})

	NewHandler(reg).RegisterRoutes(e)

	return &Server{e: e, cfg: cfg, logger: logger}
}

// Start launches the server in a background goroutine.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.API.ListenAddress, s.cfg.API.Port)
	s.logger.Info("starting API server", zap.String("address", addr))

	go func() {
		if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.e.Shutdown(ctx)
}
