package service

import (
	"context"
	"errors"
	"time"

	"github.com/123qassim/mumbso/internal/config"
	"github.com/123qassim/mumbso/internal/constants"
	"github.com/123qassim/mumbso/internal/events"
	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/123qassim/mumbso/internal/model"
	"github.com/123qassim/mumbso/internal/repository"
	"github.com/123qassim/mumbso/pkg/mpesa"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type CallbackService interface {
	HandleCallback(ctx context.Context, payload []byte) (CallbackResult, error)
}

type Callback struct {
	repo         repository.PaymentRepository
	publisher    events.Publisher
	amountPolicy string
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewCallbackService(repo repository.PaymentRepository, publisher events.Publisher, cfg *config.Config,
	m *metrics.Metrics, logger *zap.Logger) CallbackService {
	return &Callback{
		repo:         repo,
		publisher:    publisher,
		amountPolicy: cfg.Reconciliation.AmountPolicy,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// StatusFromResultCode maps an M-Pesa result code onto a terminal payment status.
func StatusFromResultCode(code int) model.PaymentStatus {
	switch code {
	case mpesa.ResultCodeSuccess:
		return model.PaymentStatusCompleted
	case mpesa.ResultCodeCancelledByUser:
		return model.PaymentStatusCancelled
	default:
		return model.PaymentStatusFailed
	}
}

// HandleCallback settles the pending payment a Daraja notification refers to.
// Malformed payloads and unknown checkout ids are returned as service errors. Store failures are
// logged and swallowed so the gateway still gets its acknowledgement. Repeated deliveries leave
// the settled payment as it is.
func (c *Callback) HandleCallback(ctx context.Context, payload []byte) (CallbackResult, error) {
	callback, err := mpesa.ParseCallback(payload)
	if err != nil {
		c.metrics.RecordCallback("invalid")
		c.logger.Warn("Invalid callback payload", zap.Error(err), zap.ByteString("payload", payload))
		return CallbackResult{}, NewServiceError(constants.ErrCodeInvalidCallback, err)
	}

	code, _ := callback.Code()
	status := StatusFromResultCode(code)
	result := CallbackResult{CheckoutRequestID: callback.CheckoutRequestID, Status: status}

	logger := c.logger.With(
		zap.String("checkoutRequestID", callback.CheckoutRequestID),
		zap.Int("resultCode", code),
		zap.String("resultDesc", callback.ResultDesc))

	payment, err := c.repo.GetByCheckoutID(ctx, callback.CheckoutRequestID)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		c.metrics.RecordCallback("unknown")
		logger.Warn("Callback for unknown payment")
		return result, NewServiceError(constants.ErrCodePaymentNotFound, err)
	}
	if err != nil {
		c.metrics.RecordStoreWriteError("callback_lookup")
		logger.Error("Failed to load payment for callback", zap.Error(err))
		return result, nil
	}

	if payment.Status.IsTerminal() {
		c.metrics.RecordCallback("duplicate")
		logger.Info("Duplicate callback ignored", zap.String("status", string(payment.Status)))
		result.Status = payment.Status
		result.Duplicate = true
		return result, nil
	}

	update := c.buildUpdate(callback, code, status, payload, payment, logger)

	err = c.repo.UpdateStatus(ctx, callback.CheckoutRequestID, update)
	switch {
	case errors.Is(err, repository.ErrPaymentAlreadySettled):
		c.metrics.RecordCallback("duplicate")
		logger.Info("Payment settled concurrently, callback ignored")
		result.Duplicate = true
		return result, nil
	case errors.Is(err, repository.ErrPaymentNotFound):
		c.metrics.RecordCallback("unknown")
		logger.Warn("Payment disappeared before callback update")
		return result, NewServiceError(constants.ErrCodePaymentNotFound, err)
	case err != nil:
		c.metrics.RecordStoreWriteError("update_status")
		logger.Error("Failed to update payment from callback", zap.Error(err))
		return result, nil
	}

	c.metrics.RecordCallback(string(status))
	logger.Info("Payment settled", zap.String("status", string(status)))

	settled := *payment
	settled.Apply(update, c.now())
	if err := c.publisher.PublishSettled(ctx, events.NewPaymentSettled(settled)); err != nil {
		c.metrics.RecordEventPublished("error")
		logger.Error("Failed to publish settlement event", zap.Error(err))
	} else {
		c.metrics.RecordEventPublished("success")
	}

	return result, nil
}

func (c *Callback) buildUpdate(callback mpesa.STKCallback, code int, status model.PaymentStatus, payload []byte,
	payment *model.Payment, logger *zap.Logger) model.StatusUpdate {
	resultDesc := callback.ResultDesc
	update := model.StatusUpdate{
		Status:             status,
		ResultCode:         &code,
		ResultDesc:         &resultDesc,
		RawCallbackPayload: datatypes.JSON(payload),
	}

	if status != model.PaymentStatusCompleted {
		return update
	}

	details := callback.Details()
	if details.ReceiptNumber != "" {
		receipt := details.ReceiptNumber
		update.TransactionID = &receipt
		update.ReceiptNumber = &receipt
	}

	if details.PhoneNumber != "" {
		phone := details.PhoneNumber
		update.PhoneNumber = &phone
	}

	if details.Amount != nil {
		if *details.Amount != payment.Amount {
			c.metrics.RecordAmountMismatch()
			logger.Warn("Callback amount differs from initiated amount",
				zap.Int64("initiatedAmount", payment.Amount),
				zap.Int64("callbackAmount", *details.Amount),
				zap.String("policy", c.amountPolicy))
		}

		// A non-positive amount is never stored; the initiated amount stands.
		if c.amountPolicy != config.AmountPolicyInitiated && *details.Amount > 0 {
			update.Amount = details.Amount
		}
	}

	return update
}
