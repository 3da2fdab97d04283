package router

import (
	"fmt"

	"remindbot/internal/interfaces/api/handler"
	"remindbot/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the dependencies for the router.
type Config struct {
	StatusHandler *handler.StatusHandler
	Logger        logger.Logger
}

// NewRouter creates and configures a new Echo router for the ops API.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Routes
	e.GET("/healthz", cfg.StatusHandler.Healthz)
	e.GET("/reminders", cfg.StatusHandler.ActiveReminders)

	cfg.Logger.Info("Router initialized with routes.")
	return e
}
