package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/auth"
	"github.com/workflowai/workflowai/internal/profile"
	"github.com/workflowai/workflowai/internal/share"
	"github.com/workflowai/workflowai/internal/template"
	"github.com/workflowai/workflowai/internal/user"
	"github.com/workflowai/workflowai/internal/workflow"
)

// --- Request helpers ---

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

// asUser stamps an authenticated identity onto the request, the way the auth
// middleware does in production.
func asUser(req *http.Request, identity *auth.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func envelopeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	env := parseEnvelope(t, w)
	require.Nil(t, env["error"], "unexpected error in envelope: %v", env["error"])
	data, ok := env["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", env["data"])
	return data
}

func envelopeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "expected an error in the envelope, got: %v", env["error"])
	code, _ := errObj["code"].(string)
	return code
}

// --- Fixtures ---

func sampleIdentity(email string, tier user.Tier) *auth.Identity {
	return &auth.Identity{
		UserID:   uuid.New(),
		Email:    email,
		FullName: "Test User",
		Tier:     tier,
	}
}

func sampleWorkflow(id uuid.UUID, owner string) *workflow.Workflow {
	now := time.Now().UTC()
	return &workflow.Workflow{
		ID:           id,
		CreatedBy:    owner,
		Name:         "Lead capture to CRM",
		Description:  "Capture leads from a form and push them to the CRM",
		Platform:     workflow.PlatformBoth,
		N8nJSON:      `{"nodes":[]}`,
		MakeJSON:     `{"modules":[]}`,
		SetupGuide:   "1. Create the webhook...",
		RequiredAPIs: []string{"HubSpot"},
		SourceType:   workflow.SourceAIGenerated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleTemplate(id uuid.UUID) *template.Template {
	now := time.Now().UTC()
	return &template.Template{
		ID:           id,
		Name:         "Slack standup reminder",
		Description:  "Posts a daily standup reminder to a Slack channel",
		Category:     "productivity",
		Platform:     workflow.PlatformN8n,
		Tags:         []string{"slack", "scheduling"},
		Popularity:   80,
		N8nTemplate:  `{"nodes":[]}`,
		RequiredAPIs: []string{"Slack"},
		SetupGuide:   "1. Create a Slack app...",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// --- Mock user repository ---

type mockUserRepo struct {
	createFn          func(ctx context.Context, u *user.User) error
	getByIDFn         func(ctx context.Context, id uuid.UUID) (*user.User, error)
	findByEmailFn     func(ctx context.Context, email string) (*user.User, error)
	findByKeyPrefixFn func(ctx context.Context, prefix string) ([]user.User, error)
	setTierFn         func(ctx context.Context, id uuid.UUID, tier user.Tier, stripeCustomerID *string) error
	consumeFn         func(ctx context.Context, id uuid.UUID, limit int, now time.Time) (*user.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *user.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) FindByKeyPrefix(ctx context.Context, prefix string) ([]user.User, error) {
	if m.findByKeyPrefixFn != nil {
		return m.findByKeyPrefixFn(ctx, prefix)
	}
	return []user.User{}, nil
}

func (m *mockUserRepo) SetTier(ctx context.Context, id uuid.UUID, tier user.Tier, stripeCustomerID *string) error {
	if m.setTierFn != nil {
		return m.setTierFn(ctx, id, tier, stripeCustomerID)
	}
	return nil
}

func (m *mockUserRepo) ConsumeGenerationCredit(ctx context.Context, id uuid.UUID, limit int, now time.Time) (*user.User, error) {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, id, limit, now)
	}
	return nil, user.ErrUserNotFound
}

// --- Mock workflow repository ---

type mockWorkflowRepo struct {
	createFn           func(ctx context.Context, w *workflow.Workflow) error
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error)
	listByOwnerFn      func(ctx context.Context, ownerEmail string) ([]workflow.Workflow, error)
	listSharedWithFn   func(ctx context.Context, email string) ([]workflow.Workflow, error)
	countByOwnerFn     func(ctx context.Context, ownerEmail string) (int, error)
	updateFn           func(ctx context.Context, id uuid.UUID, fields workflow.UpdateFields) (*workflow.Workflow, error)
	adjustShareCountFn func(ctx context.Context, id uuid.UUID, delta int) error
	deleteFn           func(ctx context.Context, id uuid.UUID) error
}

func (m *mockWorkflowRepo) Create(ctx context.Context, w *workflow.Workflow) error {
	if m.createFn != nil {
		return m.createFn(ctx, w)
	}
	w.ID = uuid.New()
	w.CreatedAt = time.Now().UTC()
	w.UpdatedAt = w.CreatedAt
	return nil
}

func (m *mockWorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, workflow.ErrWorkflowNotFound
}

func (m *mockWorkflowRepo) ListByOwner(ctx context.Context, ownerEmail string) ([]workflow.Workflow, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerEmail)
	}
	return []workflow.Workflow{}, nil
}

func (m *mockWorkflowRepo) ListSharedWith(ctx context.Context, email string) ([]workflow.Workflow, error) {
	if m.listSharedWithFn != nil {
		return m.listSharedWithFn(ctx, email)
	}
	return []workflow.Workflow{}, nil
}

func (m *mockWorkflowRepo) CountByOwner(ctx context.Context, ownerEmail string) (int, error) {
	if m.countByOwnerFn != nil {
		return m.countByOwnerFn(ctx, ownerEmail)
	}
	return 0, nil
}

func (m *mockWorkflowRepo) Update(ctx context.Context, id uuid.UUID, fields workflow.UpdateFields) (*workflow.Workflow, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, workflow.ErrWorkflowNotFound
}

func (m *mockWorkflowRepo) AdjustShareCount(ctx context.Context, id uuid.UUID, delta int) error {
	if m.adjustShareCountFn != nil {
		return m.adjustShareCountFn(ctx, id, delta)
	}
	return nil
}

func (m *mockWorkflowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock share repository ---

type mockShareRepo struct {
	createFn         func(ctx context.Context, s *share.Share) error
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*share.Share, error)
	listByWorkflowFn func(ctx context.Context, workflowID uuid.UUID) ([]share.Share, error)
	findFn           func(ctx context.Context, workflowID uuid.UUID, email string) (*share.Share, error)
	deleteFn         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockShareRepo) Create(ctx context.Context, s *share.Share) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockShareRepo) GetByID(ctx context.Context, id uuid.UUID) (*share.Share, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, share.ErrShareNotFound
}

func (m *mockShareRepo) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]share.Share, error) {
	if m.listByWorkflowFn != nil {
		return m.listByWorkflowFn(ctx, workflowID)
	}
	return []share.Share{}, nil
}

func (m *mockShareRepo) Find(ctx context.Context, workflowID uuid.UUID, email string) (*share.Share, error) {
	if m.findFn != nil {
		return m.findFn(ctx, workflowID, email)
	}
	return nil, share.ErrShareNotFound
}

func (m *mockShareRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock template repository ---

type mockTemplateRepo struct {
	listFn    func(ctx context.Context, filter template.ListFilter) ([]template.Template, error)
	getByIDFn func(ctx context.Context, id uuid.UUID) (*template.Template, error)
	upsertFn  func(ctx context.Context, t *template.Template) error
}

func (m *mockTemplateRepo) List(ctx context.Context, filter template.ListFilter) ([]template.Template, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []template.Template{}, nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*template.Template, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, template.ErrTemplateNotFound
}

func (m *mockTemplateRepo) Upsert(ctx context.Context, t *template.Template) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, t)
	}
	return nil
}

// --- Mock profile repository ---

type mockProfileRepo struct {
	getProfileFn     func(ctx context.Context, userEmail string) (*profile.Profile, error)
	upsertProfileFn  func(ctx context.Context, p *profile.Profile) error
	getProgressFn    func(ctx context.Context, userEmail string) (*profile.Progress, error)
	upsertProgressFn func(ctx context.Context, p *profile.Progress) error
}

func (m *mockProfileRepo) GetProfile(ctx context.Context, userEmail string) (*profile.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userEmail)
	}
	return nil, profile.ErrNotFound
}

func (m *mockProfileRepo) UpsertProfile(ctx context.Context, p *profile.Profile) error {
	if m.upsertProfileFn != nil {
		return m.upsertProfileFn(ctx, p)
	}
	return nil
}

func (m *mockProfileRepo) GetProgress(ctx context.Context, userEmail string) (*profile.Progress, error) {
	if m.getProgressFn != nil {
		return m.getProgressFn(ctx, userEmail)
	}
	return nil, profile.ErrNotFound
}

func (m *mockProfileRepo) UpsertProgress(ctx context.Context, p *profile.Progress) error {
	if m.upsertProgressFn != nil {
		return m.upsertProgressFn(ctx, p)
	}
	return nil
}
