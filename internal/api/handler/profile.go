package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/api/response"
	"github.com/workflowai/workflowai/internal/profile"
)

type profilePayload struct {
	Role     string   `json:"role"`
	Goals    []string `json:"goals"`
	Platform string   `json:"platform"`
	Referral string   `json:"referral"`
}

type progressPayload struct {
	OnboardingCompleted bool     `json:"onboardingCompleted"`
	CompletedSteps      []string `json:"completedSteps"`
}

// ProfileHandler handles onboarding profile and progress endpoints.
type ProfileHandler struct {
	repo profile.Repository
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(repo profile.Repository) *ProfileHandler {
	return &ProfileHandler{repo: repo}
}

// GetProfile handles GET /profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	p, err := h.repo.GetProfile(r.Context(), identity.Email)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Profile not found", requestID)
			return
		}
		slog.Error("failed to get profile", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get profile", requestID)
		return
	}

	response.Success(w, http.StatusOK, profilePayload{
		Role:     p.Role,
		Goals:    p.Goals,
		Platform: p.Platform,
		Referral: p.Referral,
	}, requestID)
}

// PutProfile handles PUT /profile with update-or-create semantics.
func (h *ProfileHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req profilePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	p := &profile.Profile{
		UserEmail: identity.Email,
		Role:      req.Role,
		Goals:     req.Goals,
		Platform:  req.Platform,
		Referral:  req.Referral,
	}
	if p.Goals == nil {
		p.Goals = []string{}
	}

	if err := h.repo.UpsertProfile(r.Context(), p); err != nil {
		slog.Error("failed to upsert profile", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save profile", requestID)
		return
	}

	response.Success(w, http.StatusOK, req, requestID)
}

// GetProgress handles GET /progress.
func (h *ProfileHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	p, err := h.repo.GetProgress(r.Context(), identity.Email)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			// A user with no record simply has not started onboarding.
			response.Success(w, http.StatusOK, progressPayload{CompletedSteps: []string{}}, requestID)
			return
		}
		slog.Error("failed to get progress", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get progress", requestID)
		return
	}

	response.Success(w, http.StatusOK, progressPayload{
		OnboardingCompleted: p.OnboardingCompleted,
		CompletedSteps:      p.CompletedSteps,
	}, requestID)
}

// PutProgress handles PUT /progress with update-or-create semantics.
func (h *ProfileHandler) PutProgress(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req progressPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	p := &profile.Progress{
		UserEmail:           identity.Email,
		OnboardingCompleted: req.OnboardingCompleted,
		CompletedSteps:      req.CompletedSteps,
	}
	if p.CompletedSteps == nil {
		p.CompletedSteps = []string{}
	}

	if err := h.repo.UpsertProgress(r.Context(), p); err != nil {
		slog.Error("failed to upsert progress", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save progress", requestID)
		return
	}

	response.Success(w, http.StatusOK, req, requestID)
}
