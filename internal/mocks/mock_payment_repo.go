package mocks

import (
	"context"

	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepo struct {
	mock.Mock
	domain.PaymentRepository
}

func (m *MockPaymentRepo) Settle(
	ctx context.Context,
	settlement domain.Settlement) (*domain.SettlementResult, error) {

	args := m.Called(ctx, settlement)
	return args.Get(0).(*domain.SettlementResult), args.Error(1)
}

func (m *MockPaymentRepo) GetByCheckoutSessionId(
	ctx context.Context,
	providerSessionID string) (*domain.Payment, error) {

	args := m.Called(ctx, providerSessionID)
	return args.Get(0).(*domain.Payment), args.Error(1)
}
