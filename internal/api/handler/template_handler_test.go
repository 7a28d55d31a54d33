package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflowai/workflowai/internal/api/handler"
	"github.com/workflowai/workflowai/internal/template"
	"github.com/workflowai/workflowai/internal/user"
	"github.com/workflowai/workflowai/internal/workflow"
)

// ===== GET /templates =====

func TestTemplateList_PassesFilter(t *testing.T) {
	t.Parallel()

	var gotFilter template.ListFilter
	repo := &mockTemplateRepo{
		listFn: func(_ context.Context, filter template.ListFilter) ([]template.Template, error) {
			gotFilter = filter
			return []template.Template{*sampleTemplate(uuid.New())}, nil
		},
	}

	h := handler.NewTemplateHandler(repo, &mockWorkflowRepo{})

	req, w := makeChiRequest(http.MethodGet, "/templates?category=productivity&platform=n8n", nil, nil)
	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "productivity", gotFilter.Category)
	assert.Equal(t, workflow.PlatformN8n, gotFilter.Platform)

	env := parseEnvelope(t, w)
	items := env["data"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Slack standup reminder", first["name"])
	assert.Equal(t, float64(80), first["popularity"])
}

func TestTemplateList_InvalidPlatform(t *testing.T) {
	t.Parallel()

	h := handler.NewTemplateHandler(&mockTemplateRepo{}, &mockWorkflowRepo{})

	req, w := makeChiRequest(http.MethodGet, "/templates?platform=zapier", nil, nil)
	h.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", envelopeErrorCode(t, w))
}

// ===== GET /templates/{id} =====

func TestTemplateGet_NotFound(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	h := handler.NewTemplateHandler(&mockTemplateRepo{}, &mockWorkflowRepo{})

	req, w := makeChiRequest(http.MethodGet, "/templates/"+id.String(), nil, map[string]string{"id": id.String()})
	h.GetByID(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ===== POST /templates/{id}/save =====

func TestTemplateSave_Success(t *testing.T) {
	t.Parallel()

	identity := sampleIdentity("alice@example.com", user.TierFree)
	id := uuid.New()
	tmpl := sampleTemplate(id)

	repo := &mockTemplateRepo{
		getByIDFn: func(_ context.Context, gotID uuid.UUID) (*template.Template, error) {
			assert.Equal(t, id, gotID)
			return tmpl, nil
		},
	}

	var created *workflow.Workflow
	workflows := &mockWorkflowRepo{
		countByOwnerFn: func(_ context.Context, owner string) (int, error) {
			assert.Equal(t, "alice@example.com", owner)
			return 2, nil
		},
		createFn: func(_ context.Context, wf *workflow.Workflow) error {
			wf.ID = uuid.New()
			created = wf
			return nil
		},
	}

	h := handler.NewTemplateHandler(repo, workflows)

	req, w := makeChiRequest(http.MethodPost, "/templates/"+id.String()+"/save", nil, map[string]string{"id": id.String()})
	h.Save(w, asUser(req, identity))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, created)
	assert.Equal(t, "alice@example.com", created.CreatedBy)
	assert.Equal(t, workflow.SourceTemplate, created.SourceType)
	require.NotNil(t, created.TemplateID)
	assert.Equal(t, id, *created.TemplateID)
	assert.Equal(t, tmpl.Name, created.Name)
	assert.Equal(t, tmpl.N8nTemplate, created.N8nJSON)

	data := envelopeData(t, w)
	assert.Equal(t, "template", data["sourceType"])
}

func TestTemplateSave_FreeTierAtCap(t *testing.T) {
	t.Parallel()

	identity := sampleIdentity("alice@example.com", user.TierFree)
	id := uuid.New()

	repo := &mockTemplateRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*template.Template, error) {
			return sampleTemplate(id), nil
		},
	}
	workflows := &mockWorkflowRepo{
		countByOwnerFn: func(_ context.Context, _ string) (int, error) {
			return 5, nil
		},
		createFn: func(_ context.Context, _ *workflow.Workflow) error {
			t.Fatal("nothing must be created past the cap")
			return nil
		},
	}

	h := handler.NewTemplateHandler(repo, workflows)

	req, w := makeChiRequest(http.MethodPost, "/templates/"+id.String()+"/save", nil, map[string]string{"id": id.String()})
	h.Save(w, asUser(req, identity))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "QUOTA_EXCEEDED", envelopeErrorCode(t, w))
}

func TestTemplateSave_PremiumIgnoresCap(t *testing.T) {
	t.Parallel()

	identity := sampleIdentity("alice@example.com", user.TierPremium)
	id := uuid.New()

	repo := &mockTemplateRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*template.Template, error) {
			return sampleTemplate(id), nil
		},
	}
	workflows := &mockWorkflowRepo{
		countByOwnerFn: func(_ context.Context, _ string) (int, error) {
			return 40, nil
		},
	}

	h := handler.NewTemplateHandler(repo, workflows)

	req, w := makeChiRequest(http.MethodPost, "/templates/"+id.String()+"/save", nil, map[string]string{"id": id.String()})
	h.Save(w, asUser(req, identity))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTemplateSave_TemplateNotFound(t *testing.T) {
	t.Parallel()

	identity := sampleIdentity("alice@example.com", user.TierFree)
	id := uuid.New()

	h := handler.NewTemplateHandler(&mockTemplateRepo{}, &mockWorkflowRepo{})

	req, w := makeChiRequest(http.MethodPost, "/templates/"+id.String()+"/save", nil, map[string]string{"id": id.String()})
	h.Save(w, asUser(req, identity))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
