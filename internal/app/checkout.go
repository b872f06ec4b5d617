package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/osanchezal/inventory-checkout-system/api"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/shopspring/decimal"
)

const checkoutCurrency = "mxn"

func (app *Application) StockCheckHandler(w http.ResponseWriter, r *http.Request) {
	lines, ok := app.readBasket(w, r)
	if !ok {
		return
	}

	ownerId := app.contextGetUserId(r)

	products, err := app.productRepo.GetByIds(r.Context(), ownerId, basketProductIds(lines))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	verdicts := domain.ValidateBasket(products, lines)

	resp := api.StockCheckResponse{Valid: true}
	resp.Verdicts = make([]api.StockVerdictResponse, len(verdicts))

	for i, verdict := range verdicts {
		resp.Verdicts[i] = api.StockVerdictResponse{
			ProductId: verdict.ProductID,
			Exists:    verdict.Exists,
			InStock:   verdict.InStock,
			Available: verdict.Available,
		}

		if !verdict.Exists || !verdict.InStock {
			resp.Valid = false
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	lines, ok := app.readBasket(w, r)
	if !ok {
		return
	}

	ownerId := app.contextGetUserId(r)

	products, err := app.productRepo.GetByIds(r.Context(), ownerId, basketProductIds(lines))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	// The total is always recomputed from the ledger's current prices; any
	// price field the client sent along is ignored for billing.
	totalAmount, err := domain.BasketTotalCents(products, lines)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid basket: %w", err))
		return
	}

	user, err := app.userRepo.GetById(r.Context(), ownerId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	order := toCheckoutOrder(ownerId, totalAmount, products, lines)

	checkoutSession, err := app.paymentProvider.CreateCheckoutSession(r.Context(), user, order)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProviderUnavailable):
			app.providerUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	// Persist the pending session before responding so an inbound settlement
	// event always finds a matching record, even if it beats this response.
	session := domain.CheckoutSession{
		ProviderSessionID: checkoutSession.ID,
		OwnerID:           ownerId,
		Basket:            order.Basket,
		Amount:            decimal.New(totalAmount, -2),
		Currency:          checkoutCurrency,
		Status:            domain.CheckoutSessionStatusPending,
	}

	err = app.checkoutRepo.Create(r.Context(), &session)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("checkout session created", "provider_session_id", checkoutSession.ID, "total_amount", totalAmount)

	resp := api.CheckoutSessionResponse{
		SessionId:   checkoutSession.ID,
		RedirectUrl: checkoutSession.URL,
		TotalAmount: totalAmount,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetCheckoutSessionHandler lets the client poll the session's payment
// status after being redirected back. A settled payment is answered from
// the local record; only sessions still pending here fall through to a
// live provider lookup, since the settlement event may not have arrived
// yet.
func (app *Application) GetCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionId := chi.URLParam(r, "sessionId")
	if sessionId == "" {
		app.badRequestResponse(w, r, fmt.Errorf("missing session id"))
		return
	}

	session, err := app.checkoutRepo.GetByProviderSessionId(r.Context(), sessionId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if session.OwnerID != app.contextGetUserId(r) {
		app.notPermittedResponse(w, r)
		return
	}

	payment, err := app.paymentRepo.GetByCheckoutSessionId(r.Context(), sessionId)
	if err == nil {
		resp := api.PaymentStatusResponse{
			Status:        "paid",
			AmountTotal:   payment.Amount,
			Currency:      payment.Currency,
			PaymentIntent: payment.PaymentIntent,
		}

		if err := app.writeJSON(w, http.StatusOK, resp, nil); err != nil {
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		app.serverErrorResponse(w, r, err)
		return
	}

	checkoutSession, err := app.paymentProvider.GetCheckoutSession(r.Context(), sessionId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProviderUnavailable):
			app.providerUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := api.PaymentStatusResponse{
		Status:      string(checkoutSession.PaymentStatus),
		AmountTotal: decimal.New(checkoutSession.AmountTotal, -2),
		Currency:    string(checkoutSession.Currency),
	}

	if checkoutSession.PaymentIntent != nil {
		resp.PaymentIntent = checkoutSession.PaymentIntent.ID
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// readBasket decodes and validates a basket payload, reporting the failure
// itself. The boolean result tells the caller whether to continue.
func (app *Application) readBasket(w http.ResponseWriter, r *http.Request) ([]domain.BasketLine, bool) {
	var input api.BasketRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return nil, false
	}

	lines := make([]domain.BasketLine, len(input.Items))
	for i, item := range input.Items {
		lines[i] = domain.BasketLine{
			ProductID:   item.ProductId,
			Quantity:    item.Quantity,
			StatedPrice: item.Price,
		}
	}

	return lines, true
}

func basketProductIds(lines []domain.BasketLine) []int {
	ids := make([]int, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	return ids
}

func toCheckoutOrder(
	ownerId int,
	totalAmount int64,
	products map[int]domain.Product,
	lines []domain.BasketLine) domain.CheckoutOrder {

	order := domain.CheckoutOrder{
		OwnerID:     ownerId,
		TotalAmount: totalAmount,
		Currency:    checkoutCurrency,
	}

	for _, line := range lines {
		product := products[line.ProductID]

		order.Lines = append(order.Lines, domain.CheckoutOrderLine{
			ProductID:  product.ID,
			Name:       product.Name,
			Unit:       product.Unit,
			UnitAmount: product.PriceCents(),
			Quantity:   line.Quantity,
		})

		order.Basket = append(order.Basket, domain.BasketItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	return order
}
