package mocks

import (
	"context"

	"github.com/123qassim/mumbso/internal/service"
	"github.com/stretchr/testify/mock"
)

type PaymentService struct {
	mock.Mock
}

func (m *PaymentService) Initiate(ctx context.Context, cmd service.InitiatePaymentCommand) (service.InitiatePaymentResponse, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(service.InitiatePaymentResponse), args.Error(1)
}

type CallbackService struct {
	mock.Mock
}

func (m *CallbackService) HandleCallback(ctx context.Context, payload []byte) (service.CallbackResult, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(service.CallbackResult), args.Error(1)
}

// StatusService also serves as the poller's status reader.
type StatusService struct {
	mock.Mock
}

func (m *StatusService) GetStatus(ctx context.Context, checkoutRequestID string) (service.PaymentStatusResponse, error) {
	args := m.Called(ctx, checkoutRequestID)
	return args.Get(0).(service.PaymentStatusResponse), args.Error(1)
}
