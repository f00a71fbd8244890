package mocks

import (
	"context"

	"github.com/123qassim/mumbso/internal/model"
	"github.com/stretchr/testify/mock"
)

type PaymentRepository struct {
	mock.Mock
}

func (m *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *PaymentRepository) UpdateStatus(ctx context.Context, checkoutRequestID string, update model.StatusUpdate) error {
	args := m.Called(ctx, checkoutRequestID, update)
	return args.Error(0)
}

func (m *PaymentRepository) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Payment, error) {
	args := m.Called(ctx, checkoutRequestID)
	payment, _ := args.Get(0).(*model.Payment)
	return payment, args.Error(1)
}
