package mocks

import (
	"context"

	"github.com/123qassim/mumbso/internal/events"
	"github.com/stretchr/testify/mock"
)

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishSettled(ctx context.Context, event events.PaymentSettled) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
