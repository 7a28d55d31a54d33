package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/api/response"
	"github.com/workflowai/workflowai/internal/billing"
)

// Billing endpoints speak the raw JSON shapes the payment provider and the
// existing client expect, not the standard envelope.

type createCheckoutRequest struct {
	PriceID string `json:"priceId"`
}

type createCheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

type billingError struct {
	Error string `json:"error"`
}

type webhookAck struct {
	Received bool `json:"received"`
}

// BillingHandler handles checkout creation and the payment-provider webhook.
type BillingHandler struct {
	checkout *billing.CheckoutService
	verifier billing.EventVerifier
	sync     *billing.SyncService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(checkout *billing.CheckoutService, verifier billing.EventVerifier, sync *billing.SyncService) *BillingHandler {
	return &BillingHandler{checkout: checkout, verifier: verifier, sync: sync}
}

// CreateCheckout handles POST /billing/checkout.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Raw(w, http.StatusUnauthorized, billingError{Error: "Unauthorized"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Raw(w, http.StatusBadRequest, billingError{Error: "Request body must be valid JSON"})
		return
	}

	session, err := h.checkout.CreateCheckout(r.Context(), identity.UserID, req.PriceID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrAlreadySubscribed):
			response.Raw(w, http.StatusBadRequest, billingError{Error: "Already subscribed to Premium"})
		case errors.Is(err, billing.ErrPriceRequired):
			response.Raw(w, http.StatusBadRequest, billingError{Error: "Price ID required"})
		default:
			slog.Error("checkout creation failed", "error", err, "user", identity.Email)
			response.Raw(w, http.StatusInternalServerError, billingError{Error: "Failed to create checkout session"})
		}
		return
	}

	response.Raw(w, http.StatusOK, createCheckoutResponse{
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	})
}

// Webhook handles POST /billing/webhook. The body must stay unparsed until
// signature verification has run against the exact received bytes.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		slog.Error("webhook missing signature header")
		response.Raw(w, http.StatusBadRequest, billingError{Error: "Missing signature"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		response.Raw(w, http.StatusBadRequest, billingError{Error: "Failed to read request body"})
		return
	}

	event, err := h.verifier.Verify(payload, signature)
	if err != nil {
		slog.Error("webhook signature verification failed", "error", err)
		response.Raw(w, http.StatusBadRequest, billingError{Error: "Invalid signature"})
		return
	}

	slog.Info("webhook event received", "kind", event.Kind.String())

	if err := h.sync.Apply(r.Context(), event); err != nil {
		// Non-2xx makes the provider retry; Apply is idempotent so that is safe.
		slog.Error("webhook processing failed", "error", err, "kind", event.Kind.String())
		response.Raw(w, http.StatusBadRequest, billingError{Error: "Webhook processing failed"})
		return
	}

	response.Raw(w, http.StatusOK, webhookAck{Received: true})
}
