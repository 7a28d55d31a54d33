package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no profile or progress record exists.
var ErrNotFound = errors.New("profile not found")

// Repository provides update-or-create access to onboarding records.
type Repository interface {
	GetProfile(ctx context.Context, userEmail string) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error

	GetProgress(ctx context.Context, userEmail string) (*Progress, error)
	UpsertProgress(ctx context.Context, p *Progress) error
}
