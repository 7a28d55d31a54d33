package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/api/response"
	"github.com/workflowai/workflowai/internal/api/validation"
	"github.com/workflowai/workflowai/internal/share"
	"github.com/workflowai/workflowai/internal/workflow"
)

type createShareRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

type shareResponse struct {
	ID              string `json:"id"`
	WorkflowID      string `json:"workflowId"`
	SharedWithEmail string `json:"sharedWithEmail"`
	Permission      string `json:"permission"`
	SharedByEmail   string `json:"sharedByEmail"`
	CreatedAt       string `json:"createdAt"`
}

func toShareResponse(s *share.Share) shareResponse {
	return shareResponse{
		ID:              s.ID.String(),
		WorkflowID:      s.WorkflowID.String(),
		SharedWithEmail: s.SharedWithEmail,
		Permission:      string(s.Permission),
		SharedByEmail:   s.SharedByEmail,
		CreatedAt:       s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ShareHandler handles workflow share endpoints.
type ShareHandler struct {
	shares    share.Repository
	workflows workflow.Repository
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(shares share.Repository, workflows workflow.Repository) *ShareHandler {
	return &ShareHandler{shares: shares, workflows: workflows}
}

// Create handles POST /workflows/{id}/shares. Owner only. A duplicate
// (workflow, email) pair is rejected before insert; the unique index backs
// the check up under races.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	wf, ok := h.ownedWorkflow(w, r, requestID, identity.Email)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Permission == "" {
		req.Permission = string(share.PermissionView)
	}

	fieldErrors := validation.ValidateCreateShareRequest(validation.CreateShareRequest{
		Email:      req.Email,
		Permission: req.Permission,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if req.Email == identity.Email {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "You cannot share a workflow with yourself", requestID)
		return
	}

	if _, err := h.shares.Find(r.Context(), wf.ID, req.Email); err == nil {
		response.Err(w, http.StatusConflict, "ALREADY_SHARED", "Already shared with this user", requestID)
		return
	} else if !errors.Is(err, share.ErrShareNotFound) {
		slog.Error("failed to check existing share", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to share workflow", requestID)
		return
	}

	s := &share.Share{
		WorkflowID:      wf.ID,
		SharedWithEmail: req.Email,
		Permission:      share.Permission(req.Permission),
		SharedByEmail:   identity.Email,
	}

	if err := h.shares.Create(r.Context(), s); err != nil {
		if errors.Is(err, share.ErrAlreadyShared) {
			response.Err(w, http.StatusConflict, "ALREADY_SHARED", "Already shared with this user", requestID)
			return
		}
		slog.Error("failed to create share", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to share workflow", requestID)
		return
	}

	if err := h.workflows.AdjustShareCount(r.Context(), wf.ID, 1); err != nil {
		slog.Error("failed to bump share count", "error", err, "workflowId", wf.ID)
	}

	response.Success(w, http.StatusCreated, toShareResponse(s), requestID)
}

// List handles GET /workflows/{id}/shares. Owner only.
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	wf, ok := h.ownedWorkflow(w, r, requestID, identity.Email)
	if !ok {
		return
	}

	shares, err := h.shares.ListByWorkflow(r.Context(), wf.ID)
	if err != nil {
		slog.Error("failed to list shares", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list shares", requestID)
		return
	}

	items := make([]shareResponse, 0, len(shares))
	for i := range shares {
		items = append(items, toShareResponse(&shares[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// Delete handles DELETE /workflows/{id}/shares/{shareId}. Owner only.
func (h *ShareHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	wf, ok := h.ownedWorkflow(w, r, requestID, identity.Email)
	if !ok {
		return
	}

	shareID, err := uuid.Parse(chi.URLParam(r, "shareId"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "shareId must be a valid UUID", requestID)
		return
	}

	s, err := h.shares.GetByID(r.Context(), shareID)
	if err != nil || s.WorkflowID != wf.ID {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Share not found", requestID)
		return
	}

	if err := h.shares.Delete(r.Context(), shareID); err != nil {
		if errors.Is(err, share.ErrShareNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Share not found", requestID)
			return
		}
		slog.Error("failed to delete share", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke share", requestID)
		return
	}

	if err := h.workflows.AdjustShareCount(r.Context(), wf.ID, -1); err != nil {
		slog.Error("failed to lower share count", "error", err, "workflowId", wf.ID)
	}

	response.NoContent(w)
}

// ownedWorkflow parses the id param, loads the workflow, and verifies the
// caller owns it.
func (h *ShareHandler) ownedWorkflow(w http.ResponseWriter, r *http.Request, requestID, email string) (*workflow.Workflow, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return nil, false
	}

	wf, err := h.workflows.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, workflow.ErrWorkflowNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Workflow not found", requestID)
			return nil, false
		}
		slog.Error("failed to get workflow", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get workflow", requestID)
		return nil, false
	}

	if wf.CreatedBy != email {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Only the owner can manage shares", requestID)
		return nil, false
	}

	return wf, true
}
