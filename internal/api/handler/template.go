package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/api/response"
	"github.com/workflowai/workflowai/internal/quota"
	"github.com/workflowai/workflowai/internal/template"
	"github.com/workflowai/workflowai/internal/workflow"
)

type templateResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Platform     string   `json:"platform"`
	Tags         []string `json:"tags"`
	Popularity   int      `json:"popularity"`
	N8nTemplate  string   `json:"n8nTemplate,omitempty"`
	MakeTemplate string   `json:"makeTemplate,omitempty"`
	RequiredAPIs []string `json:"requiredApis"`
	SetupGuide   string   `json:"setupGuide"`
}

func toTemplateResponse(t *template.Template) templateResponse {
	return templateResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		Description:  t.Description,
		Category:     t.Category,
		Platform:     string(t.Platform),
		Tags:         t.Tags,
		Popularity:   t.Popularity,
		N8nTemplate:  t.N8nTemplate,
		MakeTemplate: t.MakeTemplate,
		RequiredAPIs: t.RequiredAPIs,
		SetupGuide:   t.SetupGuide,
	}
}

// TemplateHandler handles template catalog endpoints.
type TemplateHandler struct {
	repo      template.Repository
	workflows workflow.Repository
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(repo template.Repository, workflows workflow.Repository) *TemplateHandler {
	return &TemplateHandler{repo: repo, workflows: workflows}
}

// List handles GET /templates, most popular first.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	filter := template.ListFilter{
		Category: r.URL.Query().Get("category"),
		Platform: workflow.Platform(r.URL.Query().Get("platform")),
	}
	if filter.Platform != "" && !filter.Platform.Valid() {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", `platform must be one of: "both", "make", "n8n"`, requestID)
		return
	}

	templates, err := h.repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list templates", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list templates", requestID)
		return
	}

	items := make([]templateResponse, 0, len(templates))
	for i := range templates {
		items = append(items, toTemplateResponse(&templates[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// GetByID handles GET /templates/{id}.
func (h *TemplateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	t, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, template.ErrTemplateNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Template not found", requestID)
			return
		}
		slog.Error("failed to get template", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get template", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTemplateResponse(t), requestID)
}

// Save handles POST /templates/{id}/save: materializes the template into the
// caller's workflows behind the free-tier save gate.
func (h *TemplateHandler) Save(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	t, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, template.ErrTemplateNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Template not found", requestID)
			return
		}
		slog.Error("failed to get template", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save workflow", requestID)
		return
	}

	saved, err := h.workflows.CountByOwner(r.Context(), identity.Email)
	if err != nil {
		slog.Error("failed to count workflows", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save workflow", requestID)
		return
	}

	if decision := quota.ForSave(identity.Tier, saved); !decision.Allowed {
		response.Err(w, http.StatusTooManyRequests, "QUOTA_EXCEEDED",
			"You've reached the 5 workflow limit for free users. Upgrade to Premium for unlimited saves.", requestID)
		return
	}

	templateID := t.ID
	wf := &workflow.Workflow{
		CreatedBy:    identity.Email,
		Name:         t.Name,
		Description:  t.Description,
		Platform:     t.Platform,
		N8nJSON:      t.N8nTemplate,
		MakeJSON:     t.MakeTemplate,
		SetupGuide:   t.SetupGuide,
		RequiredAPIs: t.RequiredAPIs,
		SourceType:   workflow.SourceTemplate,
		TemplateID:   &templateID,
	}

	if err := h.workflows.Create(r.Context(), wf); err != nil {
		slog.Error("failed to save workflow from template", "error", err, "templateId", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save workflow", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toWorkflowResponse(wf), requestID)
}
