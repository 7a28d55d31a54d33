package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/api/response"
	"github.com/workflowai/workflowai/internal/api/validation"
	"github.com/workflowai/workflowai/internal/generate"
	"github.com/workflowai/workflowai/internal/user"
	"github.com/workflowai/workflowai/internal/workflow"
)

type generateRequest struct {
	Description string   `json:"description"`
	Platform    string   `json:"platform"`
	FileURLs    []string `json:"fileUrls"`
}

type generateResponse struct {
	Workflow  workflowResponse `json:"workflow"`
	Remaining int              `json:"remaining"`
	Unlimited bool             `json:"unlimited"`
}

// GenerateHandler handles POST /generate.
type GenerateHandler struct {
	users   user.Repository
	service *generate.Service
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(users user.Repository, service *generate.Service) *GenerateHandler {
	return &GenerateHandler{users: users, service: service}
}

// Generate handles POST /generate: validates input, then hands off to the
// generation service which owns the quota enforcement.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Platform == "" {
		req.Platform = string(workflow.PlatformBoth)
	}

	fieldErrors := validation.ValidateGenerateRequest(validation.GenerateRequest{
		Description: req.Description,
		Platform:    req.Platform,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u, err := h.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to load user for generation", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate workflow", requestID)
		return
	}

	result, err := h.service.Generate(r.Context(), u, generate.Request{
		Description: req.Description,
		Platform:    workflow.Platform(req.Platform),
		FileURLs:    req.FileURLs,
	})
	if err != nil {
		if errors.Is(err, generate.ErrQuotaExceeded) {
			response.Err(w, http.StatusTooManyRequests, "QUOTA_EXCEEDED",
				"You've reached your monthly limit. Upgrade to Premium for unlimited workflows.", requestID)
			return
		}
		slog.Error("generation failed", "error", err, "user", u.Email)
		response.Err(w, http.StatusBadGateway, "GENERATION_FAILED", "Failed to generate workflow. Please try again.", requestID)
		return
	}

	response.Success(w, http.StatusCreated, generateResponse{
		Workflow:  toWorkflowResponse(result.Workflow),
		Remaining: result.Remaining,
		Unlimited: result.Unlimited,
	}, requestID)
}
