package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/workflowai/workflowai/internal/user"
)

// ErrAlreadySubscribed is returned when a premium user tries to check out again.
var ErrAlreadySubscribed = errors.New("already subscribed to premium")

// ErrPriceRequired is returned when the checkout request carries no price id.
var ErrPriceRequired = errors.New("price ID required")

// SessionParams describes one hosted checkout session to open.
type SessionParams struct {
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string

	// Metadata is attached to both the session and the resulting subscription
	// so the webhook can recover the user without a second lookup.
	Metadata map[string]string
}

// Session is an opened hosted checkout session.
type Session struct {
	ID  string
	URL string
}

// PaymentProvider opens hosted checkout sessions. Implemented by the Stripe
// adapter in production and by test doubles elsewhere.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
}

// CheckoutService builds hosted checkout sessions scoped to the caller.
type CheckoutService struct {
	users    user.Repository
	provider PaymentProvider
	appID    string
	baseURL  string
}

// NewCheckoutService creates a CheckoutService.
func NewCheckoutService(users user.Repository, provider PaymentProvider, appID, baseURL string) *CheckoutService {
	return &CheckoutService{users: users, provider: provider, appID: appID, baseURL: baseURL}
}

// CreateCheckout opens a subscription checkout for the caller. Premium users
// are rejected before any provider call is made, and a missing price id never
// reaches the provider either.
func (s *CheckoutService) CreateCheckout(ctx context.Context, callerID uuid.UUID, priceID string) (*Session, error) {
	u, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("resolving caller: %w", err)
	}

	if u.Tier == user.TierPremium {
		return nil, ErrAlreadySubscribed
	}

	if priceID == "" {
		return nil, ErrPriceRequired
	}

	session, err := s.provider.CreateCheckoutSession(ctx, SessionParams{
		PriceID:       priceID,
		CustomerEmail: u.Email,
		SuccessURL:    s.baseURL + "/Pricing?success=true",
		CancelURL:     s.baseURL + "/Pricing?canceled=true",
		Metadata: map[string]string{
			"app_id":     s.appID,
			"user_email": u.Email,
			"user_id":    u.ID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}

	return session, nil
}
