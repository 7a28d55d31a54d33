package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflowai/workflowai/internal/api/handler"
	"github.com/workflowai/workflowai/internal/profile"
	"github.com/workflowai/workflowai/internal/user"
)

func TestProfilePut_Upserts(t *testing.T) {
	t.Parallel()

	identity := sampleIdentity("alice@example.com", user.TierFree)

	var saved *profile.Profile
	repo := &mockProfileRepo{
		upsertProfileFn: func(_ context.Context, p *profile.Profile) error {
			saved = p
			return nil
		},
	}

	h := handler.NewProfileHandler(repo)

	body, _ := json.Marshal(map[string]interface{}{
		"role":     "marketer",
		"goals":    []string{"lead-gen"},
		"platform": "n8n",
		"referral": "twitter",
	})
	req, w := makeChiRequest(http.MethodPut, "/profile", body, nil)
	h.PutProfile(w, asUser(req, identity))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, saved)
	assert.Equal(t, "alice@example.com", saved.UserEmail)
	assert.Equal(t, "marketer", saved.Role)
	assert.Equal(t, []string{"lead-gen"}, saved.Goals)
}

func TestProfileGet_NotFound(t *testing.T) {
	t.Parallel()

	identity := sampleIdentity("alice@example.com", user.TierFree)

	h := handler.NewProfileHandler(&mockProfileRepo{})

	req, w := makeChiRequest(http.MethodGet, "/profile", nil, nil)
	h.GetProfile(w, asUser(req, identity))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgressGet_MissingRecordIsEmptyProgress(t *testing.T) {
	t.Parallel()

	identity := sampleIdentity("alice@example.com", user.TierFree)

	h := handler.NewProfileHandler(&mockProfileRepo{})

	req, w := makeChiRequest(http.MethodGet, "/progress", nil, nil)
	h.GetProgress(w, asUser(req, identity))

	// Never-onboarded users read as zero progress, not an error.
	assert.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, false, data["onboardingCompleted"])
	assert.Empty(t, data["completedSteps"])
}

func TestProgressPut_Upserts(t *testing.T) {
	t.Parallel()

	identity := sampleIdentity("alice@example.com", user.TierFree)

	var saved *profile.Progress
	repo := &mockProfileRepo{
		upsertProgressFn: func(_ context.Context, p *profile.Progress) error {
			saved = p
			return nil
		},
	}

	h := handler.NewProfileHandler(repo)

	body, _ := json.Marshal(map[string]interface{}{
		"onboardingCompleted": true,
		"completedSteps":      []string{"profile", "first-workflow"},
	})
	req, w := makeChiRequest(http.MethodPut, "/progress", body, nil)
	h.PutProgress(w, asUser(req, identity))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, saved)
	assert.True(t, saved.OnboardingCompleted)
	assert.Equal(t, []string{"profile", "first-workflow"}, saved.CompletedSteps)
}
