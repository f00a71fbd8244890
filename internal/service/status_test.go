package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/123qassim/mumbso/internal/constants"
	"github.com/123qassim/mumbso/internal/mocks"
	"github.com/123qassim/mumbso/internal/model"
	"github.com/123qassim/mumbso/internal/repository"
	"github.com/123qassim/mumbso/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatus_GetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id reads as pending", func(t *testing.T) {
		svc := service.NewStatusService(repository.NewMemoryRepository(), zap.NewNop())

		resp, err := svc.GetStatus(ctx, "ws_CO_missing")

		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, resp.Status)
		assert.Equal(t, "ws_CO_missing", resp.CheckoutRequestID)
		assert.Nil(t, resp.Amount)
		assert.Nil(t, resp.TransactionID)
	})

	t.Run("pending record reports its amount", func(t *testing.T) {
		svc := service.NewStatusService(seededRepository(t), zap.NewNop())

		resp, err := svc.GetStatus(ctx, checkoutID)

		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, resp.Status)
		require.NotNil(t, resp.Amount)
		assert.Equal(t, int64(500), *resp.Amount)
		assert.Nil(t, resp.TransactionID)
	})

	t.Run("completed record reports the transaction id", func(t *testing.T) {
		repo := seededRepository(t)
		receipt := "NLJ7RT61SV"
		desc := "The service request is processed successfully."
		require.NoError(t, repo.UpdateStatus(ctx, checkoutID, model.StatusUpdate{
			Status:        model.PaymentStatusCompleted,
			TransactionID: &receipt,
			ReceiptNumber: &receipt,
			ResultDesc:    &desc,
		}))
		svc := service.NewStatusService(repo, zap.NewNop())

		resp, err := svc.GetStatus(ctx, checkoutID)

		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, resp.Status)
		require.NotNil(t, resp.TransactionID)
		assert.Equal(t, receipt, *resp.TransactionID)
		require.NotNil(t, resp.ResultDesc)
		assert.Equal(t, desc, *resp.ResultDesc)
	})

	t.Run("read failure is an internal error", func(t *testing.T) {
		repo := &mocks.PaymentRepository{}
		repo.On("GetByCheckoutID", ctx, checkoutID).Return(nil, errors.New("connection refused")).Once()
		svc := service.NewStatusService(repo, zap.NewNop())

		_, err := svc.GetStatus(ctx, checkoutID)

		assertServiceError(t, err, constants.ErrCodeInternalError)
		repo.AssertExpectations(t)
	})
}
