package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/123qassim/mumbso/internal/config"
	"github.com/123qassim/mumbso/internal/constants"
	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/123qassim/mumbso/internal/mocks"
	"github.com/123qassim/mumbso/internal/model"
	"github.com/123qassim/mumbso/internal/service"
	"github.com/123qassim/mumbso/pkg/mpesa"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Payment: config.Payment{
			CountryCode:            "254",
			AccountReferencePrefix: "MUMBSO",
			DefaultDescription:     "MUMBSO payment",
		},
		Reconciliation: config.Reconciliation{AmountPolicy: config.AmountPolicyCallback},
	}
}

func acceptedPush() mpesa.PushResult {
	return mpesa.PushResult{
		MerchantRequestID:   "29115-34620561-1",
		CheckoutRequestID:   "ws_CO_191220191020363925",
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
		CustomerMessage:     "Success. Request accepted for processing",
		Request: mpesa.STKPushRequest{
			BusinessShortCode: "174379",
			Amount:            500,
			PhoneNumber:       "254712345678",
		},
	}
}

func assertServiceError(t *testing.T, err error, code string) {
	t.Helper()

	var serviceErr service.Error
	require.True(t, errors.As(err, &serviceErr), "expected service.Error, got %v", err)
	assert.Equal(t, code, serviceErr.Code)
}

func TestPayment_Initiate(t *testing.T) {
	logger := zap.NewNop()
	cmd := service.InitiatePaymentCommand{
		PhoneNumber:      "0712345678",
		Amount:           decimal.NewFromInt(500),
		Description:      "Membership",
		AccountReference: "MUMBSO-1",
	}

	t.Run("accepted push records a pending payment", func(t *testing.T) {
		gateway := &mocks.MpesaGateway{}
		repo := &mocks.PaymentRepository{}
		svc := service.NewPaymentService(gateway, repo, testConfig(), metrics.NewMetrics(prometheus.NewRegistry()), logger)

		gateway.On("STKPush", context.Background(), mpesa.PushRequest{
			PhoneNumber:      "254712345678",
			Amount:           500,
			AccountReference: "MUMBSO-1",
			TransactionDesc:  "Membership",
		}).Return(acceptedPush(), nil).Once()

		repo.On("Create", context.Background(), mock.MatchedBy(func(p *model.Payment) bool {
			var metadata map[string]json.RawMessage
			if err := json.Unmarshal(p.RequestMetadata, &metadata); err != nil {
				return false
			}
			_, hasPayload := metadata["requestPayload"]

			return p.CheckoutRequestID == "ws_CO_191220191020363925" &&
				p.MerchantRequestID == "29115-34620561-1" &&
				p.PhoneNumber == "254712345678" &&
				p.Amount == 500 &&
				p.Status == model.PaymentStatusPending &&
				p.PaymentMethod == model.PaymentMethodMpesa &&
				p.TransactionID == nil &&
				hasPayload
		})).Return(nil).Once()

		resp, err := svc.Initiate(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "ws_CO_191220191020363925", resp.CheckoutRequestID)
		assert.Equal(t, "254712345678", resp.PhoneNumber)
		assert.Equal(t, int64(500), resp.Amount)
		gateway.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("defaults account reference and description", func(t *testing.T) {
		gateway := &mocks.MpesaGateway{}
		repo := &mocks.PaymentRepository{}
		svc := service.NewPaymentService(gateway, repo, testConfig(), metrics.NewMetrics(prometheus.NewRegistry()), logger)

		gateway.On("STKPush", context.Background(), mock.MatchedBy(func(req mpesa.PushRequest) bool {
			return strings.HasPrefix(req.AccountReference, "MUMBSO-") && req.TransactionDesc == "MUMBSO payment"
		})).Return(acceptedPush(), nil).Once()
		repo.On("Create", context.Background(), mock.Anything).Return(nil).Once()

		resp, err := svc.Initiate(context.Background(), service.InitiatePaymentCommand{
			PhoneNumber: "712345678",
			Amount:      decimal.RequireFromString("99.6"),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(100), resp.Amount)
		assert.True(t, strings.HasPrefix(resp.AccountReference, "MUMBSO-"))
		gateway.AssertExpectations(t)
	})

	t.Run("invalid amount never reaches the gateway", func(t *testing.T) {
		for _, amount := range []string{"0", "-5", "0.2"} {
			gateway := &mocks.MpesaGateway{}
			repo := &mocks.PaymentRepository{}
			svc := service.NewPaymentService(gateway, repo, testConfig(), metrics.NewMetrics(prometheus.NewRegistry()), logger)

			_, err := svc.Initiate(context.Background(), service.InitiatePaymentCommand{
				PhoneNumber: "0712345678",
				Amount:      decimal.RequireFromString(amount),
			})

			assertServiceError(t, err, constants.ErrCodeInvalidAmount)
			assert.ErrorIs(t, err, service.ErrInvalidAmount)
			gateway.AssertNotCalled(t, "STKPush", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		}
	})

	t.Run("invalid phone never reaches the gateway", func(t *testing.T) {
		gateway := &mocks.MpesaGateway{}
		repo := &mocks.PaymentRepository{}
		svc := service.NewPaymentService(gateway, repo, testConfig(), metrics.NewMetrics(prometheus.NewRegistry()), logger)

		_, err := svc.Initiate(context.Background(), service.InitiatePaymentCommand{
			PhoneNumber: "not-a-number",
			Amount:      decimal.NewFromInt(10),
		})

		assertServiceError(t, err, constants.ErrCodeInvalidPhoneNumber)
		gateway.AssertNotCalled(t, "STKPush", mock.Anything, mock.Anything)
	})

	gatewayFailures := []struct {
		name string
		err  error
		code string
	}{
		{name: "missing configuration", err: fmt.Errorf("%w: pass_key", mpesa.ErrMissingConfig), code: constants.ErrCodeConfiguration},
		{name: "credential error", err: fmt.Errorf("%w: token endpoint returned 400", mpesa.ErrCredential), code: constants.ErrCodeCredential},
		{name: "gateway rejection", err: &mpesa.GatewayError{StatusCode: 400, ResponseCode: "1", Reason: "Invalid PhoneNumber"}, code: constants.ErrCodeGatewayRejected},
		{name: "timeout", err: fmt.Errorf("%w: %w", mpesa.ErrNetwork, mpesa.ErrTimeout), code: constants.ErrCodeNetwork},
		{name: "unreadable response", err: fmt.Errorf("%w: decoding error", mpesa.ErrInvalidResponse), code: constants.ErrCodeNetwork},
		{name: "unexpected", err: errors.New("boom"), code: constants.ErrCodeInternalError},
	}

	for _, tc := range gatewayFailures {
		t.Run(tc.name+" persists nothing", func(t *testing.T) {
			gateway := &mocks.MpesaGateway{}
			repo := &mocks.PaymentRepository{}
			m := metrics.NewMetrics(prometheus.NewRegistry())
			svc := service.NewPaymentService(gateway, repo, testConfig(), m, logger)

			gateway.On("STKPush", context.Background(), mock.Anything).Return(mpesa.PushResult{}, tc.err).Once()

			_, err := svc.Initiate(context.Background(), cmd)

			assertServiceError(t, err, tc.code)
			assert.ErrorIs(t, err, tc.err)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.STKPushTotal.WithLabelValues(tc.code)))
		})
	}

	t.Run("store failure after acceptance still returns the checkout id", func(t *testing.T) {
		gateway := &mocks.MpesaGateway{}
		repo := &mocks.PaymentRepository{}
		m := metrics.NewMetrics(prometheus.NewRegistry())
		svc := service.NewPaymentService(gateway, repo, testConfig(), m, logger)

		gateway.On("STKPush", context.Background(), mock.Anything).Return(acceptedPush(), nil).Once()
		repo.On("Create", context.Background(), mock.Anything).Return(errors.New("database is locked")).Once()

		resp, err := svc.Initiate(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "ws_CO_191220191020363925", resp.CheckoutRequestID)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreWriteErrors.WithLabelValues("create")))
	})
}
