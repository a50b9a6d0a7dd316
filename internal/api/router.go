package api

import (
	"fmt"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/api/middleware"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
// Registerer and Gatherer default to the prometheus globals when nil.
type Dependencies struct {
	AuthService ports.AuthService
	Readiness   map[string]handler.Pinger
	Logger      zerolog.Logger
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))

	httpMetrics, err := echoprometheus.MiddlewareConfig{
		Namespace:  "identity",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper:    skipOperationalRoutes,
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("http metrics middleware: %w", err)
	}
	e.Use(httpMetrics)

	// --- Identity routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	e.POST("/users", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/users/:id", authHandler.GetUser)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Readiness)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Operational ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

func skipOperationalRoutes(c echo.Context) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}
