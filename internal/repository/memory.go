package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/123qassim/mumbso/internal/model"
)

// Memory keeps payments in a map. Records are deep-copied in and out so callers never share state.
type Memory struct {
	mu       sync.RWMutex
	payments map[string]model.Payment
	nextID   int64
	now      func() time.Time
}

func NewMemoryRepository() *Memory {
	return &Memory{payments: make(map[string]model.Payment), now: time.Now}
}

func (m *Memory) Create(ctx context.Context, payment *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[payment.CheckoutRequestID]; ok {
		return ErrPaymentDuplicate
	}

	now := m.now()
	m.nextID++
	payment.ID = m.nextID
	if payment.Status == "" {
		payment.Status = model.PaymentStatusPending
	}
	if payment.PaymentMethod == "" {
		payment.PaymentMethod = model.PaymentMethodMpesa
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	m.payments[payment.CheckoutRequestID] = payment.Clone()
	return nil
}

func (m *Memory) UpdateStatus(ctx context.Context, checkoutRequestID string, update model.StatusUpdate) error {
	if !update.Status.IsTerminal() {
		return fmt.Errorf("%w: %q", ErrInvalidStatusUpdate, update.Status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	payment, ok := m.payments[checkoutRequestID]
	if !ok {
		return ErrPaymentNotFound
	}

	if payment.Status != model.PaymentStatusPending {
		return ErrPaymentAlreadySettled
	}

	payment.Apply(update.Clone(), m.now())
	m.payments[checkoutRequestID] = payment
	return nil
}

func (m *Memory) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payment, ok := m.payments[checkoutRequestID]
	if !ok {
		return nil, ErrPaymentNotFound
	}

	clone := payment.Clone()
	return &clone, nil
}
