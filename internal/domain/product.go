package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           int
	OwnerID      int
	Name         string
	Quantity     int
	CurrentPrice decimal.Decimal
	Unit         string
	PurchaseDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int
}

// PriceCents returns the product's current price in integer minor units.
// Billing arithmetic always happens in minor units so that line amounts
// never accumulate floating point error.
func (p Product) PriceCents() int64 {
	return p.CurrentPrice.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type PriceHistoryEntry struct {
	ID        int
	ProductID int
	OwnerID   int
	Price     decimal.Decimal
	StartedAt time.Time
	EndedAt   *time.Time
}

type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	GetAllByOwner(ctx context.Context, ownerID int) ([]Product, error)
	GetById(ctx context.Context, ownerID, productID int) (*Product, error)
	GetByIds(ctx context.Context, ownerID int, productIDs []int) (map[int]Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, ownerID, productID int) error

	// ConditionalDecrement reduces the product's quantity only when enough
	// stock exists at the moment the update runs. It returns
	// ErrInsufficientStock when the row exists but holds fewer units than
	// requested, and ErrRecordNotFound when there is no such row.
	ConditionalDecrement(ctx context.Context, ownerID, productID, amount int) error

	// UpdatePrice sets a new current price, closing the open price history
	// entry and opening a fresh one in the same transaction.
	UpdatePrice(ctx context.Context, ownerID, productID int, newPrice decimal.Decimal) error
	GetPriceHistory(ctx context.Context, ownerID, productID int) ([]PriceHistoryEntry, error)
}
