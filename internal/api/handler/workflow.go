package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/api/response"
	"github.com/workflowai/workflowai/internal/share"
	"github.com/workflowai/workflowai/internal/workflow"
)

type updateWorkflowRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
}

type workflowResponse struct {
	ID           string   `json:"id"`
	CreatedBy    string   `json:"createdBy"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Platform     string   `json:"platform"`
	N8nJSON      string   `json:"n8nJson,omitempty"`
	MakeJSON     string   `json:"makeJson,omitempty"`
	SetupGuide   string   `json:"setupGuide"`
	RequiredAPIs []string `json:"requiredApis"`
	SourceType   string   `json:"sourceType"`
	TemplateID   *string  `json:"templateId,omitempty"`
	Notes        string   `json:"notes"`
	IsShared     bool     `json:"isShared"`
	SharedCount  int      `json:"sharedCount"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func toWorkflowResponse(w *workflow.Workflow) workflowResponse {
	resp := workflowResponse{
		ID:           w.ID.String(),
		CreatedBy:    w.CreatedBy,
		Name:         w.Name,
		Description:  w.Description,
		Platform:     string(w.Platform),
		N8nJSON:      w.N8nJSON,
		MakeJSON:     w.MakeJSON,
		SetupGuide:   w.SetupGuide,
		RequiredAPIs: w.RequiredAPIs,
		SourceType:   string(w.SourceType),
		Notes:        w.Notes,
		IsShared:     w.IsShared,
		SharedCount:  w.SharedCount,
		CreatedAt:    w.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    w.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if w.TemplateID != nil {
		s := w.TemplateID.String()
		resp.TemplateID = &s
	}
	return resp
}

// WorkflowHandler handles workflow CRUD endpoints.
type WorkflowHandler struct {
	repo   workflow.Repository
	shares share.Repository
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(repo workflow.Repository, shares share.Repository) *WorkflowHandler {
	return &WorkflowHandler{repo: repo, shares: shares}
}

// List handles GET /workflows. With ?shared=true it lists workflows shared
// with the caller instead of the caller's own.
func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var (
		workflows []workflow.Workflow
		err       error
	)
	if r.URL.Query().Get("shared") == "true" {
		workflows, err = h.repo.ListSharedWith(r.Context(), identity.Email)
	} else {
		workflows, err = h.repo.ListByOwner(r.Context(), identity.Email)
	}
	if err != nil {
		slog.Error("failed to list workflows", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list workflows", requestID)
		return
	}

	items := make([]workflowResponse, 0, len(workflows))
	for i := range workflows {
		items = append(items, toWorkflowResponse(&workflows[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// GetByID handles GET /workflows/{id}. Owners and share grantees may read.
func (h *WorkflowHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	wf, ok := h.loadAccessible(w, r, requestID, identity.Email, false)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, toWorkflowResponse(wf), requestID)
}

// Update handles PATCH /workflows/{id}. Owners and edit/admin grantees may modify.
func (h *WorkflowHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	wf, ok := h.loadAccessible(w, r, requestID, identity.Email, true)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if req.Name != nil && *req.Name == "" {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "name must not be empty", requestID)
		return
	}

	updated, err := h.repo.Update(r.Context(), wf.ID, workflow.UpdateFields{
		Name:        req.Name,
		Description: req.Description,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, workflow.ErrWorkflowNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Workflow not found", requestID)
			return
		}
		slog.Error("failed to update workflow", "error", err, "id", wf.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update workflow", requestID)
		return
	}

	response.Success(w, http.StatusOK, toWorkflowResponse(updated), requestID)
}

// Delete handles DELETE /workflows/{id}. Owner only.
func (h *WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	wf, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, workflow.ErrWorkflowNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Workflow not found", requestID)
			return
		}
		slog.Error("failed to get workflow", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete workflow", requestID)
		return
	}

	if wf.CreatedBy != identity.Email {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Only the owner can delete a workflow", requestID)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, workflow.ErrWorkflowNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Workflow not found", requestID)
			return
		}
		slog.Error("failed to delete workflow", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete workflow", requestID)
		return
	}

	response.NoContent(w)
}

// loadAccessible parses the id param, loads the workflow, and checks access:
// the owner always passes; a grantee passes when a share exists, with edit or
// admin permission when needEdit is set. Writes the error response itself and
// returns ok=false when the caller should stop.
func (h *WorkflowHandler) loadAccessible(w http.ResponseWriter, r *http.Request, requestID, email string, needEdit bool) (*workflow.Workflow, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return nil, false
	}

	wf, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, workflow.ErrWorkflowNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Workflow not found", requestID)
			return nil, false
		}
		slog.Error("failed to get workflow", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get workflow", requestID)
		return nil, false
	}

	if wf.CreatedBy == email {
		return wf, true
	}

	grant, err := h.shares.Find(r.Context(), id, email)
	if err != nil {
		if errors.Is(err, share.ErrShareNotFound) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this workflow", requestID)
			return nil, false
		}
		slog.Error("failed to check share", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get workflow", requestID)
		return nil, false
	}

	if needEdit && !grant.Permission.CanEdit() {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Your share permission does not allow editing", requestID)
		return nil, false
	}

	return wf, true
}
