package mocks

import (
	"context"

	"github.com/123qassim/mumbso/pkg/mpesa"
	"github.com/stretchr/testify/mock"
)

type MpesaGateway struct {
	mock.Mock
}

func (m *MpesaGateway) STKPush(ctx context.Context, request mpesa.PushRequest) (mpesa.PushResult, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(mpesa.PushResult), args.Error(1)
}
