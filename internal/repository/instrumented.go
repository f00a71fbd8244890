package repository

import (
	"context"
	"errors"
	"time"

	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/123qassim/mumbso/internal/model"
	"go.uber.org/zap"
)

const slowQueryThreshold = 100 * time.Millisecond

// Instrumented records duration and outcome of every store call.
type Instrumented struct {
	next    PaymentRepository
	backend string
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewInstrumented(next PaymentRepository, backend string, m *metrics.Metrics, logger *zap.Logger) PaymentRepository {
	return &Instrumented{next: next, backend: backend, metrics: m, logger: logger}
}

func (i *Instrumented) Create(ctx context.Context, payment *model.Payment) error {
	return i.observe("create", func() error {
		return i.next.Create(ctx, payment)
	})
}

func (i *Instrumented) UpdateStatus(ctx context.Context, checkoutRequestID string, update model.StatusUpdate) error {
	return i.observe("update_status", func() error {
		return i.next.UpdateStatus(ctx, checkoutRequestID, update)
	})
}

func (i *Instrumented) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Payment, error) {
	var payment *model.Payment
	err := i.observe("get", func() error {
		var err error
		payment, err = i.next.GetByCheckoutID(ctx, checkoutRequestID)
		return err
	})
	return payment, err
}

func (i *Instrumented) observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start)

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrPaymentNotFound):
		status = "not_found"
	case errors.Is(err, ErrPaymentDuplicate), errors.Is(err, ErrPaymentAlreadySettled):
		status = "conflict"
	default:
		status = "error"
	}

	i.metrics.RecordDBQuery(operation, i.backend, status, duration)

	if duration > slowQueryThreshold {
		i.logger.Warn("Slow payment store call",
			zap.String("operation", operation),
			zap.String("backend", i.backend),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}

	return err
}
