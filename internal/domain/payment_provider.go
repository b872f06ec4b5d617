package domain

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, user *User, order CheckoutOrder) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, providerSessionID string) (*stripe.CheckoutSession, error)

	// ConstructWebhookEvent verifies the signature of a raw inbound event
	// against the provider's signing secret. Payloads that fail
	// verification must be treated as untrusted input.
	ConstructWebhookEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}
