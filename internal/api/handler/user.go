package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/api/response"
	"github.com/workflowai/workflowai/internal/quota"
	"github.com/workflowai/workflowai/internal/user"
)

type meResponse struct {
	ID                          string  `json:"id"`
	Email                       string  `json:"email"`
	FullName                    string  `json:"fullName"`
	Tier                        string  `json:"subscriptionTier"`
	WorkflowsGeneratedThisMonth int     `json:"workflowsGeneratedThisMonth"`
	LastResetDate               *string `json:"lastResetDate,omitempty"`
	CreatedAt                   string  `json:"createdAt"`
}

type quotaResponse struct {
	Generation quotaDecision `json:"generation"`
	Save       quotaDecision `json:"save"`
}

type quotaDecision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// WorkflowCounter is the slice of the workflow repository the quota endpoint needs.
type WorkflowCounter interface {
	CountByOwner(ctx context.Context, ownerEmail string) (int, error)
}

// UserHandler handles the authenticated user's own record and quota state.
type UserHandler struct {
	users     user.Repository
	workflows WorkflowCounter
	now       func() time.Time
}

// NewUserHandler creates a new UserHandler. nowFn defaults to time.Now when nil.
func NewUserHandler(users user.Repository, workflows WorkflowCounter, nowFn func() time.Time) *UserHandler {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &UserHandler{users: users, workflows: workflows, now: nowFn}
}

// Me handles GET /me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	u, err := h.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to get user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get user", requestID)
		return
	}

	resp := meResponse{
		ID:                          u.ID.String(),
		Email:                       u.Email,
		FullName:                    u.FullName,
		Tier:                        string(u.Tier),
		WorkflowsGeneratedThisMonth: u.WorkflowsGeneratedThisMonth,
		CreatedAt:                   u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if u.LastResetDate != nil {
		s := u.LastResetDate.UTC().Format("2006-01-02")
		resp.LastResetDate = &s
	}

	response.Success(w, http.StatusOK, resp, requestID)
}

// Quota handles GET /me/quota: the same policy decision the generation and
// save flows enforce, exposed for UI gating.
func (h *UserHandler) Quota(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	u, err := h.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to get user for quota", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get quota", requestID)
		return
	}

	saved, err := h.workflows.CountByOwner(r.Context(), u.Email)
	if err != nil {
		slog.Error("failed to count workflows for quota", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get quota", requestID)
		return
	}

	gen := quota.ForGeneration(u.Tier, u.WorkflowsGeneratedThisMonth, u.LastResetDate, h.now())
	save := quota.ForSave(u.Tier, saved)

	response.Success(w, http.StatusOK, quotaResponse{
		Generation: quotaDecision{Allowed: gen.Allowed, Remaining: gen.Remaining, Unlimited: gen.Unlimited},
		Save:       quotaDecision{Allowed: save.Allowed, Remaining: save.Remaining, Unlimited: save.Unlimited},
	}, requestID)
}
