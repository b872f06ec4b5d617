package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripePaymentProvider struct {
	webhookSecret string
	successUrl    string
	cancelUrl     string
}

func NewStripePaymentProvider(webhookSecret, successUrl, cancelUrl string) *StripePaymentProvider {
	return &StripePaymentProvider{
		webhookSecret: webhookSecret,
		successUrl:    successUrl,
		cancelUrl:     cancelUrl,
	}
}

func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	user *domain.User,
	order domain.CheckoutOrder) (*stripe.CheckoutSession, error) {

	var lineItems []*stripe.CheckoutSessionLineItemParams

	for _, line := range order.Lines {
		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(order.Currency),
				UnitAmount: stripe.Int64(line.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(line.Name),
					Description: stripe.String(fmt.Sprintf("Sold per %s", line.Unit)),
					Metadata: map[string]string{
						"product_id": fmt.Sprintf("%d", line.ProductID),
					},
				},
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		}

		lineItems = append(lineItems, lineItem)
	}

	basket, err := basketMetadata(order.Basket)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.cancelUrl),
		Metadata: map[string]string{
			"user_id": fmt.Sprintf("%d", order.OwnerID),
			"basket":  basket,
		},
		CustomerEmail:     &user.Email,
		ClientReferenceID: stripe.String(fmt.Sprintf("%d", user.ID)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	checkoutSession, err := session.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return checkoutSession, nil
}

func (s *StripePaymentProvider) GetCheckoutSession(
	ctx context.Context,
	providerSessionID string) (*stripe.CheckoutSession, error) {

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	checkoutSession, err := session.Get(providerSessionID, params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return checkoutSession, nil
}

func (s *StripePaymentProvider) ConstructWebhookEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
}

func basketMetadata(basket []domain.BasketItem) (string, error) {
	data, err := json.Marshal(basket)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// mapStripeError surfaces transport failures and provider outages as the
// retryable ErrProviderUnavailable. Request-level failures (bad keys,
// malformed params) keep their original error.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		}

		return err
	}

	return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
}
