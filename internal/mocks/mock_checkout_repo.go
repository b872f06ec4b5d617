package mocks

import (
	"context"

	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCheckoutRepo struct {
	mock.Mock
	domain.CheckoutSessionRepository
}

func (m *MockCheckoutRepo) Create(ctx context.Context, session *domain.CheckoutSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCheckoutRepo) GetByProviderSessionId(
	ctx context.Context,
	providerSessionID string) (*domain.CheckoutSession, error) {

	args := m.Called(ctx, providerSessionID)
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}
