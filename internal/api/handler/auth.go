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
	"github.com/workflowai/workflowai/internal/auth"
	"github.com/workflowai/workflowai/internal/user"
)

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type registeredResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Tier      string `json:"subscriptionTier"`
	ApiKey    string `json:"apiKey"`
	CreatedAt string `json:"createdAt"`
}

// AuthHandler handles registration.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /auth/register. The raw API key is returned exactly once.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	fieldErrors := validation.ValidateRegisterRequest(validation.RegisterRequest{
		Email:    req.Email,
		FullName: req.FullName,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u, rawKey, err := h.authService.Register(r.Context(), req.Email, req.FullName)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "An account with this email already exists", requestID)
			return
		}
		slog.Error("failed to register user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register", requestID)
		return
	}

	response.Success(w, http.StatusCreated, registeredResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FullName:  u.FullName,
		Tier:      string(u.Tier),
		ApiKey:    rawKey,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}, requestID)
}
