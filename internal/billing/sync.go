package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/workflowai/workflowai/internal/user"
)

// SyncService applies verified payment-provider events to the stored
// subscription tier. Every transition is idempotent: re-applying an event
// sets the same tier again and nothing else.
type SyncService struct {
	users user.Repository
}

// NewSyncService creates a SyncService.
func NewSyncService(users user.Repository) *SyncService {
	return &SyncService{users: users}
}

// Apply performs the tier transition for one event. Events that reference no
// user email, or an email with no matching user, are deliberate no-ops so the
// provider's retry policy is never triggered by business-logic misses. Only
// store failures return an error.
func (s *SyncService) Apply(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventCheckoutCompleted:
		return s.applyCheckout(ctx, ev.Checkout)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		return s.applySubscription(ctx, ev.Subscription)
	case EventUnknown:
		return nil
	default:
		return nil
	}
}

func (s *SyncService) applyCheckout(ctx context.Context, ev *CheckoutCompleted) error {
	if ev == nil || ev.UserEmail == "" || ev.PaymentStatus != "paid" {
		return nil
	}

	u, err := s.users.FindByEmail(ctx, ev.UserEmail)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			slog.Warn("checkout completed for unknown user", "email", ev.UserEmail)
			return nil
		}
		return fmt.Errorf("looking up user for checkout event: %w", err)
	}

	var customerID *string
	if ev.CustomerID != "" {
		customerID = &ev.CustomerID
	}

	if err := s.users.SetTier(ctx, u.ID, user.TierPremium, customerID); err != nil {
		return fmt.Errorf("upgrading user tier: %w", err)
	}

	slog.Info("user upgraded to premium", "email", ev.UserEmail)
	return nil
}

func (s *SyncService) applySubscription(ctx context.Context, ev *SubscriptionChange) error {
	if ev == nil || ev.UserEmail == "" {
		return nil
	}

	u, err := s.users.FindByEmail(ctx, ev.UserEmail)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			slog.Warn("subscription event for unknown user", "email", ev.UserEmail)
			return nil
		}
		return fmt.Errorf("looking up user for subscription event: %w", err)
	}

	tier := user.TierFree
	if ev.Status == "active" {
		tier = user.TierPremium
	}

	if err := s.users.SetTier(ctx, u.ID, tier, nil); err != nil {
		return fmt.Errorf("updating user tier: %w", err)
	}

	slog.Info("user tier synced", "email", ev.UserEmail, "tier", tier)
	return nil
}
