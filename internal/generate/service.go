// Package generate drives the AI workflow generation flow: quota gate, prompt
// assembly, LLM invocation, persistence, and the atomic quota consumption.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/workflowai/workflowai/internal/llm"
	"github.com/workflowai/workflowai/internal/quota"
	"github.com/workflowai/workflowai/internal/user"
	"github.com/workflowai/workflowai/internal/workflow"
)

// ErrQuotaExceeded is returned when the caller's monthly allowance is spent.
var ErrQuotaExceeded = errors.New("monthly generation quota exceeded")

// Invoker is the slice of the LLM client the generation flow needs.
type Invoker interface {
	Invoke(ctx context.Context, req llm.InvokeRequest) (json.RawMessage, error)
}

// Request describes one generation.
type Request struct {
	Description string
	Platform    workflow.Platform
	FileURLs    []string
}

// Result pairs the stored workflow with the caller's post-generation quota state.
type Result struct {
	Workflow  *workflow.Workflow
	Remaining int
	Unlimited bool
}

// generated mirrors the JSON shape requested from the LLM.
type generated struct {
	Name         string   `json:"name"`
	SetupGuide   string   `json:"setupGuide"`
	RequiredAPIs []string `json:"requiredApis"`
	N8nJSON      string   `json:"n8nJson"`
	MakeJSON     string   `json:"makeJson"`
}

// Service runs the generation flow.
type Service struct {
	users     user.Repository
	workflows workflow.Repository
	invoker   Invoker
	now       func() time.Time
}

// NewService creates a generation Service. nowFn defaults to time.Now when nil.
func NewService(users user.Repository, workflows workflow.Repository, invoker Invoker, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{users: users, workflows: workflows, invoker: invoker, now: nowFn}
}

// Generate runs one generation for the given user. The quota policy is
// checked up front to fail fast, but enforcement happens in the conditional
// counter update after the LLM call succeeds, so a failed generation never
// spends a credit and two rapid generations cannot both slip under the limit.
func (s *Service) Generate(ctx context.Context, u *user.User, req Request) (*Result, error) {
	now := s.now()

	decision := quota.ForGeneration(u.Tier, u.WorkflowsGeneratedThisMonth, u.LastResetDate, now)
	if !decision.Allowed {
		return nil, ErrQuotaExceeded
	}

	raw, err := s.invoker.Invoke(ctx, llm.InvokeRequest{
		Prompt:                 BuildPrompt(req.Description, req.Platform),
		AddContextFromInternet: true,
		FileURLs:               req.FileURLs,
		ResponseJSONSchema:     responseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("invoking LLM: %w", err)
	}

	var gen generated
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, fmt.Errorf("decoding generated workflow: %w", err)
	}
	if gen.Name == "" {
		gen.Name = req.Description
	}
	if gen.RequiredAPIs == nil {
		gen.RequiredAPIs = []string{}
	}

	updated, err := s.users.ConsumeGenerationCredit(ctx, u.ID, quota.FreeMonthlyGenerations, now)
	if err != nil {
		if errors.Is(err, user.ErrQuotaExceeded) {
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("consuming generation credit: %w", err)
	}

	w := &workflow.Workflow{
		CreatedBy:    u.Email,
		Name:         gen.Name,
		Description:  req.Description,
		Platform:     req.Platform,
		N8nJSON:      gen.N8nJSON,
		MakeJSON:     gen.MakeJSON,
		SetupGuide:   gen.SetupGuide,
		RequiredAPIs: gen.RequiredAPIs,
		SourceType:   workflow.SourceAIGenerated,
	}

	if err := s.workflows.Create(ctx, w); err != nil {
		// The credit is already spent; losing one on a store failure is the
		// accepted trade for atomic enforcement.
		slog.Error("workflow insert failed after credit consumption", "error", err, "user", u.Email)
		return nil, fmt.Errorf("storing generated workflow: %w", err)
	}

	after := quota.ForGeneration(updated.Tier, updated.WorkflowsGeneratedThisMonth, updated.LastResetDate, now)

	return &Result{
		Workflow:  w,
		Remaining: after.Remaining,
		Unlimited: after.Unlimited,
	}, nil
}

// BuildPrompt assembles the generation prompt for a platform choice.
func BuildPrompt(description string, platform workflow.Platform) string {
	platformLabel := string(platform)
	artifactLine := ""
	switch platform {
	case workflow.PlatformBoth:
		platformLabel = "n8n and Make"
		artifactLine = "Both n8n JSON and Make blueprint"
	case workflow.PlatformN8n:
		artifactLine = "n8n JSON workflow"
	case workflow.PlatformMake:
		artifactLine = "Make blueprint"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a detailed automation workflow for: %s\n\n", description)
	fmt.Fprintf(&b, "Platform: %s\n\n", platformLabel)
	b.WriteString("Provide:\n")
	b.WriteString("1. A complete step-by-step setup guide including:\n")
	b.WriteString("   - How to get each required API key/credential\n")
	b.WriteString("   - Detailed configuration steps\n")
	b.WriteString("   - Testing procedures\n")
	b.WriteString("2. List of required APIs/services\n")
	fmt.Fprintf(&b, "3. %s\n\n", artifactLine)
	b.WriteString("Be extremely detailed and practical. Include actual API documentation links where possible.")

	return b.String()
}

// responseSchema is the JSON response-shape hint passed to the LLM.
func responseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":       map[string]any{"type": "string"},
			"setupGuide": map[string]any{"type": "string"},
			"requiredApis": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"n8nJson":  map[string]any{"type": "string"},
			"makeJson": map[string]any{"type": "string"},
		},
	}
}
