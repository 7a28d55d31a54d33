package user

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a subscription tier gating feature access and quotas.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// User represents a row in the users table. Users are created through
// registration; billing and generation flows only mutate the subscription
// fields and the monthly counter.
type User struct {
	ID       uuid.UUID
	Email    string
	FullName string

	Tier                        Tier
	WorkflowsGeneratedThisMonth int
	LastResetDate               *time.Time // date precision; nil until first generation
	StripeCustomerID            *string

	ApiKeyPrefix string
	ApiKeyHash   string

	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
