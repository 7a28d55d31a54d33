package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// ErrInvalidSignature is returned when a webhook payload fails signature
// verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// StripeProvider implements PaymentProvider against the Stripe API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a StripeProvider with its own API client, so no
// package-level key state is shared between handler instances.
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

// CreateCheckoutSession opens a subscription-mode hosted checkout session.
// The metadata bag is attached to the session and mirrored onto the resulting
// subscription so later subscription events carry the user identity.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(params.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
		CustomerEmail: stripe.String(params.CustomerEmail),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: params.Metadata,
		},
	}
	sessionParams.Context = ctx
	for k, v := range params.Metadata {
		sessionParams.AddMetadata(k, v)
	}

	s, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}

	return &Session{ID: s.ID, URL: s.URL}, nil
}

// EventVerifier verifies a raw webhook payload and decodes it into a typed
// Event.
type EventVerifier interface {
	Verify(payload []byte, sigHeader string) (Event, error)
}

// StripeVerifier implements EventVerifier using Stripe's signed-webhook scheme.
type StripeVerifier struct {
	secret string
}

// NewStripeVerifier creates a StripeVerifier with the shared webhook secret.
func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

// Verify checks the signature against the raw, unparsed body bytes and maps
// the provider event onto the typed union. Verification against anything but
// the exact received bytes would silently break the HMAC, so callers must
// pass the body exactly as read from the wire.
func (v *StripeVerifier) Verify(payload []byte, sigHeader string) (Event, error) {
	stripeEvent, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return decodeStripeEvent(stripeEvent)
}

// decodeStripeEvent maps a verified stripe.Event onto the typed union.
// Unrecognized event types decode to EventUnknown.
func decodeStripeEvent(ev stripe.Event) (Event, error) {
	switch ev.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return Event{}, fmt.Errorf("decoding checkout session event: %w", err)
		}

		checkout := &CheckoutCompleted{
			PaymentStatus: string(session.PaymentStatus),
			UserEmail:     session.Metadata["user_email"],
		}
		if session.Customer != nil {
			checkout.CustomerID = session.Customer.ID
		}

		return Event{Kind: EventCheckoutCompleted, Checkout: checkout}, nil

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("decoding subscription event: %w", err)
		}

		kind := EventSubscriptionUpdated
		if ev.Type == "customer.subscription.deleted" {
			kind = EventSubscriptionDeleted
		}

		return Event{
			Kind: kind,
			Subscription: &SubscriptionChange{
				Status:    string(sub.Status),
				UserEmail: sub.Metadata["user_email"],
			},
		}, nil

	default:
		return Event{Kind: EventUnknown}, nil
	}
}
