package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/123qassim/mumbso/internal/model"
	"github.com/123qassim/mumbso/pkg/mq"
)

const TypePaymentSettled = "payment.settled"

// PaymentSettled is published once a payment reaches a terminal status.
type PaymentSettled struct {
	Type              string              `json:"type"`
	CheckoutRequestID string              `json:"checkout_request_id"`
	MerchantRequestID string              `json:"merchant_request_id,omitempty"`
	Status            model.PaymentStatus `json:"status"`
	PhoneNumber       string              `json:"phone_number"`
	Amount            int64               `json:"amount"`
	AccountReference  string              `json:"account_reference,omitempty"`
	TransactionID     string              `json:"transaction_id,omitempty"`
	ResultCode        *int                `json:"result_code,omitempty"`
	ResultDesc        string              `json:"result_desc,omitempty"`
	SettledAt         time.Time           `json:"settled_at"`
}

func NewPaymentSettled(p model.Payment) PaymentSettled {
	event := PaymentSettled{
		Type:              TypePaymentSettled,
		CheckoutRequestID: p.CheckoutRequestID,
		MerchantRequestID: p.MerchantRequestID,
		Status:            p.Status,
		PhoneNumber:       p.PhoneNumber,
		Amount:            p.Amount,
		AccountReference:  p.AccountReference,
		ResultCode:        p.ResultCode,
		SettledAt:         p.UpdatedAt.UTC(),
	}
	if p.TransactionID != nil {
		event.TransactionID = *p.TransactionID
	}
	if p.ResultDesc != nil {
		event.ResultDesc = *p.ResultDesc
	}
	return event
}

type Publisher interface {
	PublishSettled(ctx context.Context, event PaymentSettled) error
}

type publisher struct {
	mq         mq.Publisher
	exchange   string
	routingKey string
}

func NewPublisher(p mq.Publisher, exchange, routingKey string) Publisher {
	return &publisher{mq: p, exchange: exchange, routingKey: routingKey}
}

func (p *publisher) PublishSettled(ctx context.Context, event PaymentSettled) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding error: %w", err)
	}

	return p.mq.Publish(ctx, p.exchange, p.routingKey, body)
}

type noop struct{}

// NewNoopPublisher is used when RabbitMQ is disabled.
func NewNoopPublisher() Publisher { return noop{} }

func (noop) PublishSettled(context.Context, PaymentSettled) error { return nil }
