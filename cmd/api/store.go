package main

import (
	"context"
	"fmt"

	"github.com/123qassim/mumbso/internal/config"
	"github.com/123qassim/mumbso/internal/events"
	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/123qassim/mumbso/internal/repository"
	"github.com/123qassim/mumbso/pkg/mq"
	"github.com/123qassim/mumbso/pkg/mysql"
	"github.com/123qassim/mumbso/pkg/sqlite"
	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newPaymentRepository opens the configured backend and wraps it with query metrics.
func newPaymentRepository(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger,
	lc fx.Lifecycle) (repository.PaymentRepository, error) {
	ctx := context.Background()

	var (
		repo repository.PaymentRepository
		err  error
	)

	switch cfg.Store.Driver {
	case config.StoreMySQL:
		repo, err = newGormRepository(lc, m, logger, config.StoreMySQL, func() (*gorm.DB, error) {
			return mysql.NewConnection(ctx, cfg.MySQL, logger)
		})
	case config.StoreSQLite:
		repo, err = newGormRepository(lc, m, logger, config.StoreSQLite, func() (*gorm.DB, error) {
			return sqlite.NewConnection(ctx, cfg.SQLite, logger)
		})
	case config.StoreDynamoDB:
		repo, err = newDynamoRepository(ctx, cfg.DynamoDB)
	case config.StoreMemory:
		logger.Warn("Using in-memory payment store, records are lost on restart")
		repo = repository.NewMemoryRepository()
	default:
		err = fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	return repository.NewInstrumented(repo, cfg.Store.Driver, m, logger), nil
}

func newGormRepository(lc fx.Lifecycle, m *metrics.Metrics, logger *zap.Logger, name string,
	open func() (*gorm.DB, error)) (repository.PaymentRepository, error) {
	db, err := open()
	if err != nil {
		return nil, err
	}

	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate payments table: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := m.RegisterDBStats(sqlDB, name); err != nil {
		logger.Warn("Failed to register connection pool metrics", zap.Error(err))
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sqlDB.Close()
		},
	})

	return repository.NewPaymentRepository(db), nil
}

func newDynamoRepository(ctx context.Context, cfg config.DynamoDB) (repository.PaymentRepository, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = sdkaws.String(cfg.Endpoint)
		}
	})

	return repository.NewDynamoRepository(client, cfg.Table), nil
}

// newEventPublisher connects to RabbitMQ when settlement events are enabled.
func newEventPublisher(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (events.Publisher, error) {
	if !cfg.RabbitMQ.Enabled {
		return events.NewNoopPublisher(), nil
	}

	rabbit, err := mq.NewConnection(cfg.RabbitMQ.Config, logger)
	if err != nil {
		return nil, err
	}

	topology := mq.Topology{
		Exchange: cfg.RabbitMQ.Exchange,
		Bindings: []mq.Binding{{Queue: cfg.RabbitMQ.Queue, RoutingKey: cfg.RabbitMQ.RoutingKey}},
	}
	if err := rabbit.DeclareTopology(topology); err != nil {
		logger.Error("declare topology failed", zap.Error(err))
		_ = rabbit.Close()
		return nil, err
	}

	publisher, err := rabbit.CreatePublisher()
	if err != nil {
		_ = rabbit.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close publisher channel", zap.Error(err))
			}
			return rabbit.Close()
		},
	})

	logger.Info("Settlement events enabled",
		zap.String("exchange", cfg.RabbitMQ.Exchange),
		zap.String("queue", cfg.RabbitMQ.Queue))

	return events.NewPublisher(publisher, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey), nil
}
