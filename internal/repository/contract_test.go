package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/123qassim/mumbso/internal/model"
	"github.com/123qassim/mumbso/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newPendingPayment(checkoutID string) *model.Payment {
	return &model.Payment{
		CheckoutRequestID: checkoutID,
		MerchantRequestID: "29115-34620561-1",
		PhoneNumber:       "254712345678",
		Amount:            500,
		AccountReference:  "MUMBSO-1",
		Description:       "Membership",
		RequestMetadata:   datatypes.JSON(`{"Amount":500}`),
	}
}

func strPtr(s string) *string { return &s }

// testPaymentRepository runs the behaviour every backend has to share.
func testPaymentRepository(t *testing.T, newRepo func(t *testing.T) repository.PaymentRepository) {
	ctx := context.Background()

	t.Run("create then read", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, newPendingPayment("ws_CO_1")))

		got, err := repo.GetByCheckoutID(ctx, "ws_CO_1")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, got.Status)
		assert.Equal(t, model.PaymentMethodMpesa, got.PaymentMethod)
		assert.Equal(t, "254712345678", got.PhoneNumber)
		assert.Equal(t, int64(500), got.Amount)
		assert.Nil(t, got.TransactionID)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate checkout id", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, newPendingPayment("ws_CO_1")))
		err := repo.Create(ctx, newPendingPayment("ws_CO_1"))

		assert.ErrorIs(t, err, repository.ErrPaymentDuplicate)
	})

	t.Run("missing record", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByCheckoutID(ctx, "unknown")
		assert.ErrorIs(t, err, repository.ErrPaymentNotFound)

		err = repo.UpdateStatus(ctx, "unknown", model.StatusUpdate{Status: model.PaymentStatusFailed})
		assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
	})

	t.Run("complete a pending payment", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPendingPayment("ws_CO_1")))

		code := 0
		err := repo.UpdateStatus(ctx, "ws_CO_1", model.StatusUpdate{
			Status:             model.PaymentStatusCompleted,
			TransactionID:      strPtr("NLJ7RT61SV"),
			ReceiptNumber:      strPtr("NLJ7RT61SV"),
			ResultCode:         &code,
			ResultDesc:         strPtr("The service request is processed successfully."),
			RawCallbackPayload: datatypes.JSON(`{"Body":{}}`),
		})
		require.NoError(t, err)

		got, err := repo.GetByCheckoutID(ctx, "ws_CO_1")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, got.Status)
		require.NotNil(t, got.TransactionID)
		assert.Equal(t, "NLJ7RT61SV", *got.TransactionID)
		require.NotNil(t, got.ResultCode)
		assert.Equal(t, 0, *got.ResultCode)
		assert.Equal(t, "254712345678", got.PhoneNumber)
		assert.Equal(t, int64(500), got.Amount)
		assert.JSONEq(t, `{"Body":{}}`, string(got.RawCallbackPayload))
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("settled payment does not move", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPendingPayment("ws_CO_1")))
		require.NoError(t, repo.UpdateStatus(ctx, "ws_CO_1", model.StatusUpdate{Status: model.PaymentStatusCancelled}))

		err := repo.UpdateStatus(ctx, "ws_CO_1", model.StatusUpdate{
			Status:        model.PaymentStatusCompleted,
			TransactionID: strPtr("LATE"),
		})
		assert.ErrorIs(t, err, repository.ErrPaymentAlreadySettled)

		got, err := repo.GetByCheckoutID(ctx, "ws_CO_1")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCancelled, got.Status)
		assert.Nil(t, got.TransactionID)
	})

	t.Run("pending is not a valid update", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPendingPayment("ws_CO_1")))

		err := repo.UpdateStatus(ctx, "ws_CO_1", model.StatusUpdate{Status: model.PaymentStatusPending})
		assert.ErrorIs(t, err, repository.ErrInvalidStatusUpdate)
	})

	t.Run("overwrites amount and phone when given", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPendingPayment("ws_CO_1")))

		amount := int64(499)
		err := repo.UpdateStatus(ctx, "ws_CO_1", model.StatusUpdate{
			Status:      model.PaymentStatusCompleted,
			Amount:      &amount,
			PhoneNumber: strPtr("254700000001"),
		})
		require.NoError(t, err)

		got, err := repo.GetByCheckoutID(ctx, "ws_CO_1")
		require.NoError(t, err)
		assert.Equal(t, int64(499), got.Amount)
		assert.Equal(t, "254700000001", got.PhoneNumber)
	})

	t.Run("stored record does not alias caller values", func(t *testing.T) {
		repo := newRepo(t)
		payment := newPendingPayment("ws_CO_1")
		require.NoError(t, repo.Create(ctx, payment))
		payment.RequestMetadata[0] = '['

		receipt := "NLJ7RT61SV"
		payload := datatypes.JSON(`{"Body":{}}`)
		require.NoError(t, repo.UpdateStatus(ctx, "ws_CO_1", model.StatusUpdate{
			Status:             model.PaymentStatusCompleted,
			TransactionID:      &receipt,
			RawCallbackPayload: payload,
		}))
		receipt = "CALLER"
		payload[0] = '['

		got, err := repo.GetByCheckoutID(ctx, "ws_CO_1")
		require.NoError(t, err)
		*got.TransactionID = "TAMPERED"
		got.RawCallbackPayload[0] = '['

		again, err := repo.GetByCheckoutID(ctx, "ws_CO_1")
		require.NoError(t, err)
		require.NotNil(t, again.TransactionID)
		assert.Equal(t, "NLJ7RT61SV", *again.TransactionID)
		assert.JSONEq(t, `{"Body":{}}`, string(again.RawCallbackPayload))
		assert.JSONEq(t, `{"Amount":500}`, string(again.RequestMetadata))
	})

	t.Run("concurrent writers on distinct keys", func(t *testing.T) {
		repo := newRepo(t)

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("ws_CO_%d", i)
				if err := repo.Create(ctx, newPendingPayment(id)); err != nil {
					errs <- err
					return
				}
				errs <- repo.UpdateStatus(ctx, id, model.StatusUpdate{Status: model.PaymentStatusFailed})
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}

		for i := 0; i < 20; i++ {
			got, err := repo.GetByCheckoutID(ctx, fmt.Sprintf("ws_CO_%d", i))
			require.NoError(t, err)
			assert.Equal(t, model.PaymentStatusFailed, got.Status)
		}
	})
}
