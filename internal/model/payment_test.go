package model_test

import (
	"testing"
	"time"

	"github.com/123qassim/mumbso/internal/model"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestPaymentStatus(t *testing.T) {
	assert.False(t, model.PaymentStatusPending.IsTerminal())
	assert.True(t, model.PaymentStatusCompleted.IsTerminal())
	assert.True(t, model.PaymentStatusFailed.IsTerminal())
	assert.True(t, model.PaymentStatusCancelled.IsTerminal())

	assert.True(t, model.PaymentStatusPending.IsValid())
	assert.False(t, model.PaymentStatus("refunded").IsValid())
}

func TestPayment_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Minute)

	t.Run("completed overwrites supplied fields", func(t *testing.T) {
		p := model.Payment{CheckoutRequestID: "c", PhoneNumber: "254700000000", Amount: 100,
			Status: model.PaymentStatusPending, CreatedAt: created, UpdatedAt: created}

		receipt := "NLJ7RT61SV"
		phone := "254712345678"
		amount := int64(99)
		code := 0
		p.Apply(model.StatusUpdate{
			Status:             model.PaymentStatusCompleted,
			TransactionID:      &receipt,
			ReceiptNumber:      &receipt,
			PhoneNumber:        &phone,
			Amount:             &amount,
			ResultCode:         &code,
			RawCallbackPayload: datatypes.JSON(`{"ok":true}`),
		}, now)

		assert.Equal(t, model.PaymentStatusCompleted, p.Status)
		assert.Equal(t, "NLJ7RT61SV", *p.TransactionID)
		assert.Equal(t, "254712345678", p.PhoneNumber)
		assert.Equal(t, int64(99), p.Amount)
		assert.Equal(t, now, p.UpdatedAt)
		assert.Equal(t, created, p.CreatedAt)
	})

	t.Run("absent fields keep stored values", func(t *testing.T) {
		p := model.Payment{CheckoutRequestID: "c", PhoneNumber: "254700000000", Amount: 100,
			Status: model.PaymentStatusPending}

		p.Apply(model.StatusUpdate{Status: model.PaymentStatusCancelled}, now)

		assert.Equal(t, model.PaymentStatusCancelled, p.Status)
		assert.Equal(t, "254700000000", p.PhoneNumber)
		assert.Equal(t, int64(100), p.Amount)
		assert.Nil(t, p.TransactionID)
	})
}

func TestPayment_Clone(t *testing.T) {
	receipt := "NLJ7RT61SV"
	code := 0
	p := model.Payment{
		TransactionID:      &receipt,
		ResultCode:         &code,
		RawCallbackPayload: datatypes.JSON(`{"a":1}`),
		RequestMetadata:    datatypes.JSON(`{"b":2}`),
	}

	c := p.Clone()
	*c.TransactionID = "OTHER"
	*c.ResultCode = 1
	c.RawCallbackPayload[0] = '['
	c.RequestMetadata[0] = '['

	assert.Equal(t, "NLJ7RT61SV", *p.TransactionID)
	assert.Equal(t, 0, *p.ResultCode)
	assert.JSONEq(t, `{"a":1}`, string(p.RawCallbackPayload))
	assert.JSONEq(t, `{"b":2}`, string(p.RequestMetadata))
	assert.Nil(t, model.Payment{}.Clone().ReceiptNumber)
}
