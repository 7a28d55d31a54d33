package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies which automation platform(s) a workflow targets.
type Platform string

const (
	PlatformN8n  Platform = "n8n"
	PlatformMake Platform = "make"
	PlatformBoth Platform = "both"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformN8n || p == PlatformMake || p == PlatformBoth
}

// SourceType records how a workflow came to exist.
type SourceType string

const (
	SourceAIGenerated SourceType = "ai_generated"
	SourceTemplate    SourceType = "template"
)

// Workflow represents a row in the workflows table: one saved automation
// artifact, AI-generated or materialized from a catalog template.
type Workflow struct {
	ID          uuid.UUID
	CreatedBy   string // owner email
	Name        string
	Description string
	Platform    Platform

	// Generated artifacts, independently optional.
	N8nJSON  string
	MakeJSON string

	SetupGuide   string
	RequiredAPIs []string

	SourceType SourceType
	TemplateID *uuid.UUID // back-reference when SourceType is template

	Notes string

	IsShared    bool
	SharedCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateFields holds optional fields for a partial workflow update.
// Nil fields are not updated.
type UpdateFields struct {
	Name        *string
	Description *string
	Notes       *string
}
