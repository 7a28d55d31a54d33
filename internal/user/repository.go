package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when a user with the same email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrQuotaExceeded is returned by ConsumeGenerationCredit when the monthly
// generation allowance is spent.
var ErrQuotaExceeded = errors.New("monthly generation quota exceeded")

// Repository provides operations on the users table. Queries are typed per
// use case rather than a generic filter bag.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByKeyPrefix(ctx context.Context, prefix string) ([]User, error)

	// SetTier stores the subscription tier, and the payment-provider customer
	// reference when one is supplied. Setting the same tier twice is a no-op.
	SetTier(ctx context.Context, id uuid.UUID, tier Tier, stripeCustomerID *string) error

	// ConsumeGenerationCredit atomically checks the monthly quota and, if a
	// credit is available (or the user is premium), increments the counter and
	// stamps the reset date in a single conditional update. Returns
	// ErrQuotaExceeded when the allowance is spent and ErrUserNotFound when no
	// such user exists.
	ConsumeGenerationCredit(ctx context.Context, id uuid.UUID, limit int, now time.Time) (*User, error)
}
