package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutSessionStatus string

const (
	CheckoutSessionStatusPending   CheckoutSessionStatus = "pending"
	CheckoutSessionStatusCompleted CheckoutSessionStatus = "completed"
	CheckoutSessionStatusCanceled  CheckoutSessionStatus = "canceled"
)

// CheckoutSession is the local record of a provider-tracked payment intent.
// The basket snapshot holds (product, quantity) pairs only; prices are
// always recomputed server-side and never trusted back from a snapshot.
type CheckoutSession struct {
	ID                int
	ProviderSessionID string
	OwnerID           int
	Basket            []BasketItem
	Amount            decimal.Decimal
	Currency          string
	Status            CheckoutSessionStatus
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

type CheckoutSessionRepository interface {
	Create(ctx context.Context, session *CheckoutSession) error
	GetByProviderSessionId(ctx context.Context, providerSessionID string) (*CheckoutSession, error)
}

// CheckoutOrder is the server-priced order handed to the payment provider.
type CheckoutOrder struct {
	OwnerID     int
	Lines       []CheckoutOrderLine
	Basket      []BasketItem
	TotalAmount int64
	Currency    string
}

type CheckoutOrderLine struct {
	ProductID  int
	Name       string
	Unit       string
	UnitAmount int64
	Quantity   int
}
