package api

import (
	"strings"

	"github.com/123qassim/mumbso/internal/api/contract"
	"github.com/123qassim/mumbso/internal/api/middleware"
	v1 "github.com/123qassim/mumbso/internal/api/v1"
	"github.com/123qassim/mumbso/internal/config"
	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func NewApp(cfg *config.Config, handler *v1.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer,
	logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.API.ServiceName,
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	app.Use(middleware.TrackID())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.API.AllowedOrigins, ","),
		AllowMethods:  strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}, ","),
		AllowHeaders:  "Authorization, Content-Type, X-Client-Info, Apikey",
		ExposeHeaders: contract.TrackIDHeader,
	}))
	app.Use(middleware.HTTPMetricsMiddleware(m, logger))
	app.Use(middleware.HealthCheckMiddleware(cfg.API.ServiceName))

	SetupRoutes(app, handler, gatherer)

	return app
}
