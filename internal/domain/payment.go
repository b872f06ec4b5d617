package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCanceled  PaymentStatus = "canceled"
	PaymentStatusCompleted PaymentStatus = "completed"
)

type Payment struct {
	ID                int
	UserID            int
	CheckoutSessionId string
	PaymentIntent     string
	Amount            decimal.Decimal
	Currency          string
	Status            PaymentStatus
	PaymentDate       *time.Time
	CreatedAt         time.Time
}

// Settlement carries everything needed to durably record a completed
// payment and decrement the corresponding stock.
type Settlement struct {
	ProviderSessionID string
	PaymentIntent     string
	OwnerID           int
	Amount            decimal.Decimal
	Currency          string
	Lines             []BasketItem
}

// ReconciliationConflict records a basket line whose stock was depleted
// between validation and settlement. The payment stands; the conflict is
// kept for manual follow-up.
type ReconciliationConflict struct {
	ProviderSessionID string
	ProductID         int
	Requested         int
}

type SettlementResult struct {
	// AlreadySettled is true when a payment row for the session existed
	// before this call, i.e. the event was a replay and no side effects
	// were applied.
	AlreadySettled bool
	Conflicts      []ReconciliationConflict
}

type PaymentRepository interface {
	// Settle applies the completed-payment state transition for a checkout
	// session as one atomic unit: payment insert, per-line conditional
	// stock decrements, conflict records, and the session status change
	// either all commit or none do. Calling it again for the same session
	// is a no-op.
	Settle(ctx context.Context, settlement Settlement) (*SettlementResult, error)
	GetByCheckoutSessionId(ctx context.Context, providerSessionID string) (*Payment, error)
}
