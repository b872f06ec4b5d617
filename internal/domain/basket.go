package domain

import "github.com/shopspring/decimal"

// BasketLine is a single client-submitted basket entry. StatedPrice is
// whatever the client believes the product costs; it is echoed back for
// display and never used to compute the charged amount.
type BasketLine struct {
	ProductID   int
	Quantity    int
	StatedPrice *decimal.Decimal
}

// BasketItem is the minimal (product, quantity) pair that travels as
// correlation metadata on a checkout session and drives settlement.
type BasketItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type StockVerdict struct {
	ProductID int
	Exists    bool
	InStock   bool
	Available *int
}

// ValidateBasket checks every basket line against an owner-scoped product
// snapshot and reports a verdict per line. It never fails fast: callers get
// the full list so all problems can be surfaced at once. The snapshot is
// advisory; staleness is resolved at settlement, not here.
func ValidateBasket(products map[int]Product, lines []BasketLine) []StockVerdict {
	verdicts := make([]StockVerdict, len(lines))

	for i, line := range lines {
		verdict := StockVerdict{ProductID: line.ProductID}

		product, ok := products[line.ProductID]
		if !ok {
			verdicts[i] = verdict
			continue
		}

		verdict.Exists = true

		if product.Quantity < line.Quantity {
			available := product.Quantity
			verdict.Available = &available
			verdicts[i] = verdict
			continue
		}

		verdict.InStock = true
		verdicts[i] = verdict
	}

	return verdicts
}

// BasketTotalCents computes the authoritative checkout total in integer
// minor units over the ledger's current prices. Client-stated prices never
// participate. It returns ErrInvalidBasket when the basket is empty, a line
// has a non-positive quantity or an unknown product, or the sum is not
// strictly positive.
func BasketTotalCents(products map[int]Product, lines []BasketLine) (int64, error) {
	if len(lines) == 0 {
		return 0, ErrInvalidBasket
	}

	var total int64

	for _, line := range lines {
		if line.Quantity <= 0 {
			return 0, ErrInvalidBasket
		}

		product, ok := products[line.ProductID]
		if !ok {
			return 0, ErrInvalidBasket
		}

		total += product.PriceCents() * int64(line.Quantity)
	}

	if total <= 0 {
		return 0, ErrInvalidBasket
	}

	return total, nil
}
