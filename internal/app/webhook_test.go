package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/osanchezal/inventory-checkout-system/api"
	"github.com/osanchezal/inventory-checkout-system/internal/domain"
	"github.com/osanchezal/inventory-checkout-system/internal/mailer"
	"github.com/osanchezal/inventory-checkout-system/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type PaymentWebhookTestSuite struct {
	suite.Suite
	app             *Application
	paymentRepo     *mocks.MockPaymentRepo
	userRepo        *mocks.MockUserRepo
	paymentProvider *mocks.MockPaymentProvider
	mailer          *mailer.MockMailer
}

func (s *PaymentWebhookTestSuite) SetupTest() {
	s.paymentRepo = new(mocks.MockPaymentRepo)
	s.userRepo = new(mocks.MockUserRepo)
	s.paymentProvider = new(mocks.MockPaymentProvider)
	s.mailer = mailer.NewMockMailer()

	s.app = newTestApplication(func(a *Application) {
		a.paymentRepo = s.paymentRepo
		a.userRepo = s.userRepo
		a.paymentProvider = s.paymentProvider
		a.mailer = s.mailer
	})
}

func TestPaymentWebhookSuite(t *testing.T) {
	suite.Run(t, new(PaymentWebhookTestSuite))
}

// completedCheckoutEvent builds a verified-looking event for a completed
// checkout of two units of product 7 at 50.00 each.
func completedCheckoutEvent(s *PaymentWebhookTestSuite, metadata map[string]string) stripe.Event {
	raw, err := json.Marshal(map[string]any{
		"id":           "cs_test_1",
		"amount_total": 10000,
		"currency":     "mxn",
		"metadata":     metadata,
	})
	s.Require().NoError(err)

	return stripe.Event{
		ID:   "evt_test_1",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func validMetadata() map[string]string {
	return map[string]string{
		"user_id": "1",
		"basket":  `[{"product_id":7,"quantity":2}]`,
	}
}

func (s *PaymentWebhookTestSuite) TestRejectsInvalidSignatureWithoutSideEffects() {
	s.paymentProvider.On("ConstructWebhookEvent", mock.Anything, "t=123,v1=abc").
		Return(stripe.Event{}, fmt.Errorf("signature mismatch")).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/payment-webhook", map[string]string{"raw": "payload"})
	r.Header.Set("Stripe-Signature", "t=123,v1=abc")
	s.app.PaymentWebhookHandler(w, r)

	s.Equal(http.StatusBadRequest, w.Code)

	var resp api.ErrorResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal("webhook signature verification failed", resp.Message)

	s.paymentRepo.AssertNotCalled(s.T(), "Settle")
	s.Empty(s.mailer.SentEmails())
	s.paymentProvider.AssertExpectations(s.T())
}

func (s *PaymentWebhookTestSuite) TestAcknowledgesUnrelatedEventTypes() {
	event := stripe.Event{
		ID:   "evt_test_2",
		Type: stripe.EventTypeCheckoutSessionExpired,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}

	s.paymentProvider.On("ConstructWebhookEvent", mock.Anything, mock.Anything).
		Return(event, nil).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/payment-webhook", map[string]string{"raw": "payload"})
	s.app.PaymentWebhookHandler(w, r)

	s.Equal(http.StatusOK, w.Code)

	var resp api.WebhookAckResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.True(resp.Received)

	s.paymentRepo.AssertNotCalled(s.T(), "Settle")
	s.paymentProvider.AssertExpectations(s.T())
}

func (s *PaymentWebhookTestSuite) TestAcknowledgesVerifiedEventWithMalformedMetadata() {
	event := completedCheckoutEvent(s, map[string]string{
		"user_id": "not-a-number",
		"basket":  `[{"product_id":7,"quantity":2}]`,
	})

	s.paymentProvider.On("ConstructWebhookEvent", mock.Anything, mock.Anything).
		Return(event, nil).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/payment-webhook", map[string]string{"raw": "payload"})
	s.app.PaymentWebhookHandler(w, r)

	s.Equal(http.StatusOK, w.Code)
	s.paymentRepo.AssertNotCalled(s.T(), "Settle")
	s.paymentProvider.AssertExpectations(s.T())
}

func (s *PaymentWebhookTestSuite) TestSettlesCompletedCheckoutAndSendsReceipt() {
	event := completedCheckoutEvent(s, validMetadata())

	s.paymentProvider.On("ConstructWebhookEvent", mock.Anything, mock.Anything).
		Return(event, nil).Once()

	s.paymentRepo.On("Settle", mock.Anything, mock.MatchedBy(func(settlement domain.Settlement) bool {
		return settlement.ProviderSessionID == "cs_test_1" &&
			settlement.OwnerID == 1 &&
			settlement.Amount.Equal(decimal.RequireFromString("100.00")) &&
			settlement.Currency == "mxn" &&
			len(settlement.Lines) == 1 &&
			settlement.Lines[0] == domain.BasketItem{ProductID: 7, Quantity: 2}
	})).Return(&domain.SettlementResult{}, nil).Once()

	s.userRepo.On("GetById", mock.Anything, 1).
		Return(&domain.User{ID: 1, Username: "ana", Email: "ana@test.com"}, nil).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/payment-webhook", map[string]string{"raw": "payload"})
	s.app.PaymentWebhookHandler(w, r)

	s.Equal(http.StatusOK, w.Code)

	s.Eventually(func() bool {
		return len(s.mailer.SentEmails()) == 1
	}, time.Second, 10*time.Millisecond, "expected a payment receipt to be sent")

	sent := s.mailer.SentEmails()[0]
	s.Equal("ana@test.com", sent.Recipient)
	s.Equal("payment_receipt.tmpl", sent.TemplateFile)

	s.paymentRepo.AssertExpectations(s.T())
	s.paymentProvider.AssertExpectations(s.T())
	s.userRepo.AssertExpectations(s.T())
}

func (s *PaymentWebhookTestSuite) TestAcknowledgesReplayedEventWithoutResending() {
	event := completedCheckoutEvent(s, validMetadata())

	s.paymentProvider.On("ConstructWebhookEvent", mock.Anything, mock.Anything).
		Return(event, nil).Once()

	s.paymentRepo.On("Settle", mock.Anything, mock.Anything).
		Return(&domain.SettlementResult{AlreadySettled: true}, nil).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/payment-webhook", map[string]string{"raw": "payload"})
	s.app.PaymentWebhookHandler(w, r)

	s.Equal(http.StatusOK, w.Code)

	s.userRepo.AssertNotCalled(s.T(), "GetById")
	s.Empty(s.mailer.SentEmails())
	s.paymentRepo.AssertExpectations(s.T())
}

func (s *PaymentWebhookTestSuite) TestAcknowledgesSettlementWithStockConflicts() {
	event := completedCheckoutEvent(s, validMetadata())

	s.paymentProvider.On("ConstructWebhookEvent", mock.Anything, mock.Anything).
		Return(event, nil).Once()

	s.paymentRepo.On("Settle", mock.Anything, mock.Anything).
		Return(&domain.SettlementResult{
			Conflicts: []domain.ReconciliationConflict{
				{ProviderSessionID: "cs_test_1", ProductID: 7, Requested: 2},
			},
		}, nil).Once()

	s.userRepo.On("GetById", mock.Anything, 1).
		Return(&domain.User{ID: 1, Username: "ana", Email: "ana@test.com"}, nil).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/payment-webhook", map[string]string{"raw": "payload"})
	s.app.PaymentWebhookHandler(w, r)

	s.Equal(http.StatusOK, w.Code)

	var resp api.WebhookAckResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.True(resp.Received)

	s.Eventually(func() bool {
		return len(s.mailer.SentEmails()) == 1
	}, time.Second, 10*time.Millisecond, "expected a payment receipt to be sent")

	s.paymentRepo.AssertExpectations(s.T())
}

func (s *PaymentWebhookTestSuite) TestReturns500WhenSettlementFails() {
	event := completedCheckoutEvent(s, validMetadata())

	s.paymentProvider.On("ConstructWebhookEvent", mock.Anything, mock.Anything).
		Return(event, nil).Once()

	s.paymentRepo.On("Settle", mock.Anything, mock.Anything).
		Return((*domain.SettlementResult)(nil), fmt.Errorf("connection reset")).Once()

	w, r := executeRequest(s.T(), http.MethodPost, "/payment-webhook", map[string]string{"raw": "payload"})
	s.app.PaymentWebhookHandler(w, r)

	s.Equal(http.StatusInternalServerError, w.Code)

	var resp api.ErrorResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal(ErrInternalServer, resp.Message)

	s.Empty(s.mailer.SentEmails())
	s.paymentRepo.AssertExpectations(s.T())
}
