package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/123qassim/mumbso/internal/events"
	"github.com/123qassim/mumbso/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mqPublisher struct {
	mock.Mock
}

func (m *mqPublisher) Publish(ctx context.Context, exchange string, routingKey string, body []byte) error {
	args := m.Called(ctx, exchange, routingKey, body)
	return args.Error(0)
}

func settledPayment() model.Payment {
	receipt := "NLJ7RT61SV"
	code := 0
	return model.Payment{
		CheckoutRequestID: "ws_CO_1",
		MerchantRequestID: "m-1",
		Status:            model.PaymentStatusCompleted,
		PhoneNumber:       "254712345678",
		Amount:            500,
		TransactionID:     &receipt,
		ResultCode:        &code,
		UpdatedAt:         time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPublisher_PublishSettled(t *testing.T) {
	t.Run("routes the encoded event", func(t *testing.T) {
		mq := &mqPublisher{}
		pub := events.NewPublisher(mq, "payments", "payment.settled")

		mq.On("Publish", context.Background(), "payments", "payment.settled",
			mock.MatchedBy(func(body []byte) bool {
				var event events.PaymentSettled
				if err := json.Unmarshal(body, &event); err != nil {
					return false
				}
				return event.Type == events.TypePaymentSettled &&
					event.CheckoutRequestID == "ws_CO_1" &&
					event.TransactionID == "NLJ7RT61SV" &&
					event.Status == model.PaymentStatusCompleted
			})).Return(nil).Once()

		err := pub.PublishSettled(context.Background(), events.NewPaymentSettled(settledPayment()))

		require.NoError(t, err)
		mq.AssertExpectations(t)
	})

	t.Run("publish failure is returned", func(t *testing.T) {
		mq := &mqPublisher{}
		pub := events.NewPublisher(mq, "payments", "payment.settled")
		boom := errors.New("channel closed")

		mq.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom).Once()

		err := pub.PublishSettled(context.Background(), events.NewPaymentSettled(settledPayment()))

		assert.ErrorIs(t, err, boom)
	})

	t.Run("noop", func(t *testing.T) {
		assert.NoError(t, events.NewNoopPublisher().PublishSettled(context.Background(), events.PaymentSettled{}))
	})
}
