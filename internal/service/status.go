package service

import (
	"context"
	"errors"

	"github.com/123qassim/mumbso/internal/constants"
	"github.com/123qassim/mumbso/internal/model"
	"github.com/123qassim/mumbso/internal/repository"
	"go.uber.org/zap"
)

type StatusService interface {
	GetStatus(ctx context.Context, checkoutRequestID string) (PaymentStatusResponse, error)
}

type Status struct {
	repo   repository.PaymentRepository
	logger *zap.Logger
}

func NewStatusService(repo repository.PaymentRepository, logger *zap.Logger) StatusService {
	return &Status{repo: repo, logger: logger}
}

// GetStatus reports a checkout id that has no record yet as pending, since the initiator may
// still be writing it.
func (s *Status) GetStatus(ctx context.Context, checkoutRequestID string) (PaymentStatusResponse, error) {
	payment, err := s.repo.GetByCheckoutID(ctx, checkoutRequestID)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		return PaymentStatusResponse{CheckoutRequestID: checkoutRequestID, Status: model.PaymentStatusPending}, nil
	}
	if err != nil {
		s.logger.Error("Failed to read payment status",
			zap.Error(err),
			zap.String("checkoutRequestID", checkoutRequestID))
		return PaymentStatusResponse{}, NewServiceError(constants.ErrCodeInternalError, err)
	}

	amount := payment.Amount
	return PaymentStatusResponse{
		CheckoutRequestID: payment.CheckoutRequestID,
		Status:            payment.Status,
		Amount:            &amount,
		TransactionID:     payment.TransactionID,
		ResultDesc:        payment.ResultDesc,
	}, nil
}
