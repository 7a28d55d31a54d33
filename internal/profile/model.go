package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a row in the user_profiles table: onboarding form
// answers keyed by the user's email.
type Profile struct {
	ID        uuid.UUID
	UserEmail string
	Role      string
	Goals     []string
	Platform  string // preferred automation platform, free text
	Referral  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Progress represents a row in the user_progress table: which onboarding
// steps the user has completed.
type Progress struct {
	ID                  uuid.UUID
	UserEmail           string
	OnboardingCompleted bool
	CompletedSteps      []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
