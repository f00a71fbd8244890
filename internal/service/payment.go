package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/123qassim/mumbso/internal/config"
	"github.com/123qassim/mumbso/internal/constants"
	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/123qassim/mumbso/internal/model"
	"github.com/123qassim/mumbso/internal/repository"
	"github.com/123qassim/mumbso/pkg/mpesa"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type PaymentService interface {
	Initiate(ctx context.Context, cmd InitiatePaymentCommand) (InitiatePaymentResponse, error)
}

type Payment struct {
	gateway  mpesa.Gateway
	repo     repository.PaymentRepository
	settings config.Payment
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewPaymentService(gateway mpesa.Gateway, repo repository.PaymentRepository, cfg *config.Config,
	m *metrics.Metrics, logger *zap.Logger) PaymentService {
	return &Payment{gateway: gateway, repo: repo, settings: cfg.Payment, metrics: m, logger: logger, now: time.Now}
}

// Initiate validates the input, asks M-Pesa to prompt the payer and records the pending payment.
// Nothing is sent when the phone number or amount is invalid.
func (p *Payment) Initiate(ctx context.Context, cmd InitiatePaymentCommand) (InitiatePaymentResponse, error) {
	phone, err := NormalizePhoneNumber(cmd.PhoneNumber, p.settings.CountryCode)
	if err != nil {
		p.logger.Warn("Rejected phone number", zap.String("phoneNumber", cmd.PhoneNumber))
		return InitiatePaymentResponse{}, NewServiceError(constants.ErrCodeInvalidPhoneNumber, err)
	}

	amount, err := NormalizeAmount(cmd.Amount)
	if err != nil {
		p.logger.Warn("Rejected amount", zap.String("amount", cmd.Amount.String()))
		return InitiatePaymentResponse{}, NewServiceError(constants.ErrCodeInvalidAmount, err)
	}

	accountReference := cmd.AccountReference
	if accountReference == "" {
		accountReference = fmt.Sprintf("%s-%d", p.settings.AccountReferencePrefix, p.now().UnixMilli())
	}

	description := cmd.Description
	if description == "" {
		description = p.settings.DefaultDescription
	}

	start := time.Now()
	result, err := p.gateway.STKPush(ctx, mpesa.PushRequest{
		PhoneNumber:      phone,
		Amount:           amount,
		AccountReference: accountReference,
		TransactionDesc:  description,
	})
	if err != nil {
		code := gatewayErrorCode(err)
		p.metrics.RecordSTKPush(code, time.Since(start))
		p.logger.Error("STK push failed",
			zap.Error(err),
			zap.String("code", code),
			zap.String("phoneNumber", phone),
			zap.Int64("amount", amount),
			zap.String("accountReference", accountReference))

		return InitiatePaymentResponse{}, NewServiceError(code, err)
	}

	p.metrics.RecordSTKPush("accepted", time.Since(start))

	payment := &model.Payment{
		CheckoutRequestID: result.CheckoutRequestID,
		MerchantRequestID: result.MerchantRequestID,
		PhoneNumber:       phone,
		Amount:            amount,
		AccountReference:  accountReference,
		Description:       description,
		PaymentMethod:     model.PaymentMethodMpesa,
		Status:            model.PaymentStatusPending,
		RequestMetadata:   requestMetadata(result),
	}

	if err := p.repo.Create(ctx, payment); err != nil {
		// the payer already has the prompt, so the checkout id is still returned
		p.metrics.RecordStoreWriteError("create")
		p.logger.Error("Failed to record pending payment",
			zap.Error(err),
			zap.String("checkoutRequestID", result.CheckoutRequestID),
			zap.String("phoneNumber", phone),
			zap.Int64("amount", amount))
	}

	p.logger.Info("STK push initiated",
		zap.String("checkoutRequestID", result.CheckoutRequestID),
		zap.String("merchantRequestID", result.MerchantRequestID),
		zap.String("phoneNumber", phone),
		zap.Int64("amount", amount))

	return InitiatePaymentResponse{
		CheckoutRequestID: result.CheckoutRequestID,
		MerchantRequestID: result.MerchantRequestID,
		CustomerMessage:   result.CustomerMessage,
		PhoneNumber:       phone,
		Amount:            amount,
		AccountReference:  accountReference,
	}, nil
}

func gatewayErrorCode(err error) string {
	var gwErr *mpesa.GatewayError

	switch {
	case errors.Is(err, mpesa.ErrMissingConfig):
		return constants.ErrCodeConfiguration
	case errors.Is(err, mpesa.ErrCredential):
		return constants.ErrCodeCredential
	case errors.As(err, &gwErr):
		return constants.ErrCodeGatewayRejected
	case errors.Is(err, mpesa.ErrNetwork), errors.Is(err, mpesa.ErrInvalidResponse):
		return constants.ErrCodeNetwork
	default:
		return constants.ErrCodeInternalError
	}
}

func requestMetadata(result mpesa.PushResult) datatypes.JSON {
	raw, err := json.Marshal(map[string]any{
		"requestPayload": result.Request,
		"response": map[string]string{
			"ResponseCode":        result.ResponseCode,
			"ResponseDescription": result.ResponseDescription,
			"CustomerMessage":     result.CustomerMessage,
		},
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
