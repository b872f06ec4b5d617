package mocks

import (
	"context"

	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
)

type MockPaymentProvider struct {
	mock.Mock
	domain.PaymentProvider
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	user *domain.User,
	order domain.CheckoutOrder) (*stripe.CheckoutSession, error) {

	args := m.Called(ctx, user, order)
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) GetCheckoutSession(
	ctx context.Context,
	providerSessionID string) (*stripe.CheckoutSession, error) {

	args := m.Called(ctx, providerSessionID)
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) ConstructWebhookEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	args := m.Called(payload, signatureHeader)
	return args.Get(0).(stripe.Event), args.Error(1)
}
