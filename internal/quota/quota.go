// Package quota decides whether a user may generate or save another workflow.
// The month-boundary rule lives here and nowhere else so the generation gate,
// the save gate, and the /me/quota endpoint can never drift apart.
package quota

import (
	"time"

	"github.com/workflowai/workflowai/internal/user"
)

// FreeMonthlyGenerations is the monthly allowance of AI generations for
// free-tier users.
const FreeMonthlyGenerations = 5

// FreeSavedWorkflows is the cap on stored workflows for free-tier users.
const FreeSavedWorkflows = 5

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool
	Remaining int  // meaningful only when Unlimited is false
	Unlimited bool // premium tier
}

// IsNewMonth reports whether now falls in a different calendar month than
// lastReset. A nil lastReset counts as a new month, so first-time users are
// always allowed. The comparison is month+year equality, not a rolling
// 30-day window.
func IsNewMonth(lastReset *time.Time, now time.Time) bool {
	if lastReset == nil {
		return true
	}
	return now.Month() != lastReset.Month() || now.Year() != lastReset.Year()
}

// EffectiveCount returns the monthly counter after applying the month reset.
func EffectiveCount(count int, lastReset *time.Time, now time.Time) int {
	if IsNewMonth(lastReset, now) {
		return 0
	}
	return count
}

// ForGeneration evaluates the monthly generation quota for a user.
func ForGeneration(tier user.Tier, count int, lastReset *time.Time, now time.Time) Decision {
	if tier == user.TierPremium {
		return Decision{Allowed: true, Unlimited: true}
	}

	effective := EffectiveCount(count, lastReset, now)
	remaining := FreeMonthlyGenerations - effective
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   effective < FreeMonthlyGenerations,
		Remaining: remaining,
	}
}

// ForSave evaluates the stored-workflow cap. Unlike generation it counts
// saved workflows with no month component.
func ForSave(tier user.Tier, savedCount int) Decision {
	if tier == user.TierPremium {
		return Decision{Allowed: true, Unlimited: true}
	}

	remaining := FreeSavedWorkflows - savedCount
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   savedCount < FreeSavedWorkflows,
		Remaining: remaining,
	}
}
