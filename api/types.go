// Package api holds the request and response types of the HTTP API.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	Id        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Price        decimal.Decimal `json:"price" validate:"required,price"`
	Quantity     int             `json:"quantity" validate:"min=0"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	PurchaseDate *time.Time      `json:"purchaseDate"`
}

type UpdateProductRequest struct {
	Name         string     `json:"name" validate:"required,max=100"`
	Quantity     int        `json:"quantity" validate:"min=0"`
	Unit         string     `json:"unit" validate:"required,max=20"`
	PurchaseDate *time.Time `json:"purchaseDate"`
}

type UpdatePriceRequest struct {
	Price decimal.Decimal `json:"price" validate:"required,price"`
}

type ProductResponse struct {
	Id           int             `json:"id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Unit         string          `json:"unit"`
	PurchaseDate time.Time       `json:"purchaseDate"`
	Version      int             `json:"version"`
}

type PriceHistoryEntryResponse struct {
	Price     decimal.Decimal `json:"price"`
	StartedAt time.Time       `json:"startedAt"`
	EndedAt   *time.Time      `json:"endedAt,omitempty"`
}

type BasketLineRequest struct {
	ProductId int `json:"productId" validate:"required,min=1"`
	Quantity  int `json:"quantity" validate:"required,min=1"`
	// Price is advisory and display-only; the charged amount is always
	// recomputed from the ledger.
	Price *decimal.Decimal `json:"price,omitempty"`
}

type BasketRequest struct {
	Items []BasketLineRequest `json:"items" validate:"required,min=1,dive"`
}

type StockVerdictResponse struct {
	ProductId int  `json:"productId"`
	Exists    bool `json:"exists"`
	InStock   bool `json:"inStock"`
	Available *int `json:"available,omitempty"`
}

type StockCheckResponse struct {
	Valid    bool                   `json:"valid"`
	Verdicts []StockVerdictResponse `json:"verdicts"`
}

type CheckoutSessionResponse struct {
	SessionId   string `json:"sessionId"`
	RedirectUrl string `json:"redirectUrl"`
	// TotalAmount is the charged total in minor units.
	TotalAmount int64 `json:"totalAmount"`
}

type PaymentStatusResponse struct {
	Status        string          `json:"status"`
	AmountTotal   decimal.Decimal `json:"amountTotal"`
	Currency      string          `json:"currency"`
	PaymentIntent string          `json:"paymentIntent,omitempty"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}
