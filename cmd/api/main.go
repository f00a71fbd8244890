package main

import (
	"context"
	"fmt"

	"github.com/123qassim/mumbso/internal/api"
	v1 "github.com/123qassim/mumbso/internal/api/v1"
	"github.com/123qassim/mumbso/internal/api/validator"
	"github.com/123qassim/mumbso/internal/config"
	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/123qassim/mumbso/internal/service"
	"github.com/123qassim/mumbso/pkg/httpclient"
	"github.com/123qassim/mumbso/pkg/mpesa"
	playground "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.Provide(
			loadConfig,
			newLogger,
			prometheus.NewRegistry,
			newMetrics,

			newPaymentRepository,
			newEventPublisher,
			newGateway,

			service.NewPaymentService,
			service.NewCallbackService,
			service.NewStatusService,

			newValidator,
			v1.NewHandler,
			newApp,
		),
		fx.Invoke(runServer),
	).Run()
}

func runServer(cfg *config.Config, app *fiber.App, logger *zap.Logger, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Fatal("Failed to start server", zap.Error(err))
				}
			}()

			logger.Info("Payments API started",
				zap.String("port", cfg.API.Port),
				zap.String("store", cfg.Store.Driver),
				zap.Bool("events", cfg.RabbitMQ.Enabled))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping payments API")
			return app.ShutdownWithContext(ctx)
		},
	})
}

// loadConfig refuses to start with settings that would fail every payment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Logger.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newMetrics(reg *prometheus.Registry) (*metrics.Metrics, error) {
	m := metrics.NewMetrics(reg)
	if err := m.RegisterRuntimeCollectors(); err != nil {
		return nil, fmt.Errorf("register runtime collectors: %w", err)
	}
	return m, nil
}

func newGateway(cfg *config.Config) mpesa.Gateway {
	client := httpclient.NewHTTPClient(cfg.Mpesa.Timeout)
	return mpesa.NewGateway(cfg.Mpesa, client)
}

func newValidator(m *metrics.Metrics) (validator.IXValidator, error) {
	return validator.NewXValidator(playground.New(), m)
}

func newApp(cfg *config.Config, handler *v1.Handler, m *metrics.Metrics, reg *prometheus.Registry,
	logger *zap.Logger) *fiber.App {
	return api.NewApp(cfg, handler, m, reg, logger)
}
