package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflowai/workflowai/internal/billing"
	"github.com/workflowai/workflowai/internal/user"
)

type mockProvider struct {
	createFn func(ctx context.Context, params billing.SessionParams) (*billing.Session, error)
	calls    int
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, params billing.SessionParams) (*billing.Session, error) {
	m.calls++
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return &billing.Session{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
}

func TestCreateCheckout_Success(t *testing.T) {
	t.Parallel()

	u := freeUser("alice@example.com")
	repo := &mockUserRepo{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*user.User, error) {
			assert.Equal(t, u.ID, id)
			return u, nil
		},
	}

	var gotParams billing.SessionParams
	provider := &mockProvider{
		createFn: func(_ context.Context, params billing.SessionParams) (*billing.Session, error) {
			gotParams = params
			return &billing.Session{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
		},
	}

	svc := billing.NewCheckoutService(repo, provider, "workflowai", "https://app.example.com")

	session, err := svc.CreateCheckout(context.Background(), u.ID, "price_premium")

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.example.com/cs_test_1", session.URL)

	assert.Equal(t, "price_premium", gotParams.PriceID)
	assert.Equal(t, "alice@example.com", gotParams.CustomerEmail)
	assert.Equal(t, "https://app.example.com/Pricing?success=true", gotParams.SuccessURL)
	assert.Equal(t, "https://app.example.com/Pricing?canceled=true", gotParams.CancelURL)

	// The webhook recovers the user from this metadata; all three keys matter.
	assert.Equal(t, "workflowai", gotParams.Metadata["app_id"])
	assert.Equal(t, "alice@example.com", gotParams.Metadata["user_email"])
	assert.Equal(t, u.ID.String(), gotParams.Metadata["user_id"])
}

func TestCreateCheckout_PremiumNeverReachesProvider(t *testing.T) {
	t.Parallel()

	u := freeUser("alice@example.com")
	u.Tier = user.TierPremium

	repo := &mockUserRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*user.User, error) {
			return u, nil
		},
	}
	provider := &mockProvider{}

	svc := billing.NewCheckoutService(repo, provider, "workflowai", "https://app.example.com")

	_, err := svc.CreateCheckout(context.Background(), u.ID, "price_premium")

	assert.ErrorIs(t, err, billing.ErrAlreadySubscribed)
	assert.Equal(t, 0, provider.calls)
}

func TestCreateCheckout_MissingPriceNeverReachesProvider(t *testing.T) {
	t.Parallel()

	u := freeUser("alice@example.com")
	repo := &mockUserRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*user.User, error) {
			return u, nil
		},
	}
	provider := &mockProvider{}

	svc := billing.NewCheckoutService(repo, provider, "workflowai", "https://app.example.com")

	_, err := svc.CreateCheckout(context.Background(), u.ID, "")

	assert.ErrorIs(t, err, billing.ErrPriceRequired)
	assert.Equal(t, 0, provider.calls)
}

func TestCreateCheckout_UnknownCaller(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{}
	provider := &mockProvider{}

	svc := billing.NewCheckoutService(repo, provider, "workflowai", "https://app.example.com")

	_, err := svc.CreateCheckout(context.Background(), uuid.New(), "price_premium")

	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.Equal(t, 0, provider.calls)
}
