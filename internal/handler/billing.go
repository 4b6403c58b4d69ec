// Package handler contains the HTTP layer.
//
// This file implements the tier purchase endpoints: checkout session
// creation, the Stripe webhook, and a development stub that applies
// upgrades directly when Stripe is not configured.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/ycliang/scriptly/internal/billing"
	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/middleware"
	"github.com/ycliang/scriptly/internal/service"
)

// maxWebhookBody caps the webhook payload size.
const maxWebhookBody = 64 * 1024

// BillingHandler handles tier purchase requests.
type BillingHandler struct {
	billing  billing.Service // nil when Stripe is not configured
	upgrades service.UpgradeService
	baseURL  string
	logger   *slog.Logger
}

// NewBillingHandler creates a new BillingHandler. A nil billing service
// turns the checkout endpoint into a direct-upgrade development stub.
func NewBillingHandler(billingService billing.Service, upgrades service.UpgradeService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:  billingService,
		upgrades: upgrades,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// RegisterRoutes registers billing routes. Checkout requires an identity;
// the webhook authenticates via its signature.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, withIdentity func(http.Handler) http.Handler) {
	mux.Handle("POST /api/billing/checkout", withIdentity(http.HandlerFunc(h.Checkout)))
	mux.HandleFunc("POST /webhooks/stripe", h.Webhook)
}

type checkoutRequest struct {
	Tier string `json:"tier"`
}

// Checkout starts a tier purchase. With Stripe configured it returns a
// checkout URL; without it (development) the upgrade is applied directly.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("billing.checkout", "sign in to purchase a plan"))
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("billing.checkout", "invalid request body"))
		return
	}

	tier, err := domain.ParseTier(req.Tier)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if h.billing == nil {
		// Development stub: skip payment, apply the upgrade immediately
		if err := h.upgrades.Upgrade(r.Context(), account.ID, tier); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "upgraded", "tier": string(tier)})
		return
	}

	url, err := h.billing.CreateCheckoutSession(billing.CheckoutParams{
		AccountID:  account.ID.String(),
		Email:      account.Email,
		Tier:       tier,
		SuccessURL: h.baseURL + "/billing/success",
		CancelURL:  h.baseURL + "/billing/cancel",
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "billing.checkout", "failed to create checkout session"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"checkoutUrl": url})
}

// Webhook applies settled purchases reported by Stripe.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		http.Error(w, "billing not configured", http.StatusNotFound)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}

	event, err := h.billing.VerifyWebhookSignature(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if event.Type != "checkout.session.completed" {
		// Acknowledge everything else; only settled checkouts change tiers
		w.WriteHeader(http.StatusOK)
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		return
	}

	accountID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		h.logger.Error("checkout session missing account reference", "session_id", session.ID)
		http.Error(w, "invalid account reference", http.StatusBadRequest)
		return
	}

	tier, err := domain.ParseTier(session.Metadata["tier"])
	if err != nil {
		h.logger.Error("checkout session missing tier metadata", "session_id", session.ID)
		http.Error(w, "invalid tier metadata", http.StatusBadRequest)
		return
	}

	if err := h.upgrades.Upgrade(r.Context(), accountID, tier); err != nil {
		h.logger.Error("failed to apply settled upgrade",
			"account_id", accountID,
			"tier", tier,
			"error", err,
		)
		// Non-2xx makes Stripe retry the event
		http.Error(w, "upgrade failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
