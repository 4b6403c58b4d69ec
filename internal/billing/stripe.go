// Package billing provides the Stripe integration for the tier upgrade stub.
//
// Payment capture is out of scope for the metering core: this package only
// creates checkout sessions, verifies webhook signatures, and maps settled
// price IDs back to tiers so the upgrade service can rewrite accounts.
package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/ycliang/scriptly/internal/domain"
)

// CheckoutParams describes a tier purchase to start.
type CheckoutParams struct {
	AccountID  string
	Email      string
	Tier       domain.Tier
	SuccessURL string
	CancelURL  string
}

// Service defines the interface for billing operations.
type Service interface {
	// CreateCheckoutSession creates a Stripe Checkout session for a tier
	// purchase. Returns the checkout URL to redirect the user to.
	CreateCheckoutSession(params CheckoutParams) (string, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)
}

// PriceConfig holds the Stripe price IDs for each paid tier.
type PriceConfig struct {
	CreatorPriceID  string
	ProPriceID      string
	LifetimePriceID string
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	tierToPrice   map[domain.Tier]string
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls. The webhookSecret verifies
// incoming webhook signatures. The prices map paid tiers to Stripe price IDs.
func NewStripeService(secretKey, webhookSecret string, prices PriceConfig) Service {
	stripe.Key = secretKey

	tierToPrice := make(map[domain.Tier]string)
	if prices.CreatorPriceID != "" {
		tierToPrice[domain.TierCreator] = prices.CreatorPriceID
	}
	if prices.ProPriceID != "" {
		tierToPrice[domain.TierPro] = prices.ProPriceID
	}
	if prices.LifetimePriceID != "" {
		tierToPrice[domain.TierLifetime] = prices.LifetimePriceID
	}

	return &stripeService{
		webhookSecret: webhookSecret,
		tierToPrice:   tierToPrice,
	}
}

func (s *stripeService) CreateCheckoutSession(params CheckoutParams) (string, error) {
	priceID, ok := s.tierToPrice[params.Tier]
	if !ok {
		return "", fmt.Errorf("no price configured for tier %s", params.Tier)
	}

	mode := stripe.CheckoutSessionModeSubscription
	if domain.GetTierPlan(params.Tier).OneTime {
		mode = stripe.CheckoutSessionModePayment
	}

	sessionParams := &stripe.CheckoutSessionParams{
		CustomerEmail:     stripe.String(params.Email),
		ClientReferenceID: stripe.String(params.AccountID),
		Mode:              stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessionParams.AddMetadata("tier", string(params.Tier))

	sess, err := checkoutsession.New(sessionParams)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}
