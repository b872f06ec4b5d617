package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/osanchezal/inventory-checkout-system/api"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// PaymentWebhookHandler consumes provider events. The payload signature is
// the sole trust boundary for this path: nothing is touched until it
// verifies. Delivery is at-least-once, so the settlement it triggers must be
// an idempotent state transition keyed by the provider session id.
func (app *Application) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to read webhook payload: %w", err))
		return
	}

	event, err := app.paymentProvider.ConstructWebhookEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.Warn("rejected webhook event with invalid signature", "error", err)
		app.badRequestResponse(w, r, fmt.Errorf("webhook signature verification failed"))
		return
	}

	// Only completed checkouts drive state; everything else is acknowledged
	// so the provider stops redelivering it.
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		app.ackWebhook(w, r)
		return
	}

	var checkoutSession stripe.CheckoutSession
	err = json.Unmarshal(event.Data.Raw, &checkoutSession)
	if err != nil {
		logger.Error("failed to parse checkout session from verified event", "error", err, "event_id", event.ID)
		app.ackWebhook(w, r)
		return
	}

	settlement, err := toSettlement(checkoutSession)
	if err != nil {
		// The signature proved the event authentic; redelivering a payload
		// we cannot parse can never succeed, so ack it and leave the trail
		// in the logs.
		logger.Error("failed to build settlement from verified event", "error", err, "event_id", event.ID)
		app.ackWebhook(w, r)
		return
	}

	result, err := app.paymentRepo.Settle(r.Context(), settlement)
	if err != nil {
		// Settlement is atomic and idempotent, so the provider's retry of
		// this 500 is safe.
		app.serverErrorResponse(w, r, err)
		return
	}

	if result.AlreadySettled {
		logger.Info("ignored replayed settlement event", "provider_session_id", settlement.ProviderSessionID)
		app.ackWebhook(w, r)
		return
	}

	for _, conflict := range result.Conflicts {
		logger.Warn("stock reconciliation conflict, line recorded for manual follow-up",
			"provider_session_id", conflict.ProviderSessionID,
			"product_id", conflict.ProductID,
			"requested", conflict.Requested,
		)
	}

	logger.Info("settled payment",
		"provider_session_id", settlement.ProviderSessionID,
		"amount", settlement.Amount,
		"conflicts", len(result.Conflicts),
	)

	app.sendPaymentReceipt(r, settlement)

	app.ackWebhook(w, r)
}

func (app *Application) ackWebhook(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, api.WebhookAckResponse{Received: true}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) sendPaymentReceipt(r *http.Request, settlement domain.Settlement) {
	// Capture the detached context and logger now; the request must not be
	// touched after the handler returns.
	ctx := context.WithoutCancel(r.Context())
	gLogger := app.contextGetLogger(r)

	go func() {
		defer func() {
			if err := recover(); err != nil {
				gLogger.Error("panic occurred during sending payment receipt", "panic", err)
			}
		}()

		user, err := app.userRepo.GetById(ctx, settlement.OwnerID)
		if err != nil {
			gLogger.Error("failed to look up user for payment receipt", "error", err)
			return
		}

		data := map[string]any{
			"username":  user.Username,
			"amount":    settlement.Amount.StringFixed(2),
			"currency":  settlement.Currency,
			"sessionID": settlement.ProviderSessionID,
		}

		err = app.mailer.Send(user.Email, "payment_receipt.tmpl", data)
		if err != nil {
			gLogger.Error("failed to send payment receipt", "error", err)
		}
	}()
}

func toSettlement(checkoutSession stripe.CheckoutSession) (domain.Settlement, error) {
	var settlement domain.Settlement

	ownerId, err := strconv.Atoi(checkoutSession.Metadata["user_id"])
	if err != nil {
		return settlement, fmt.Errorf("event metadata has no valid user_id: %w", err)
	}

	var basket []domain.BasketItem
	err = json.Unmarshal([]byte(checkoutSession.Metadata["basket"]), &basket)
	if err != nil {
		return settlement, fmt.Errorf("event metadata has no valid basket: %w", err)
	}

	settlement = domain.Settlement{
		ProviderSessionID: checkoutSession.ID,
		OwnerID:           ownerId,
		Amount:            decimal.New(checkoutSession.AmountTotal, -2),
		Currency:          string(checkoutSession.Currency),
		Lines:             basket,
	}

	if checkoutSession.PaymentIntent != nil {
		settlement.PaymentIntent = checkoutSession.PaymentIntent.ID
	}

	return settlement, nil
}
