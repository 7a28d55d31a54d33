package template

import (
	"time"

	"github.com/google/uuid"

	"github.com/workflowai/workflowai/internal/workflow"
)

// Template represents a row in the templates table: a read-only catalog entry
// that can be materialized into a user's workflow. Nothing in the API mutates
// templates; the catalog is maintained through the seed file.
type Template struct {
	ID          uuid.UUID
	Name        string
	Description string
	Category    string
	Platform    workflow.Platform
	Tags        []string
	Popularity  int // 0-100 score used for default ordering

	N8nTemplate  string
	MakeTemplate string
	RequiredAPIs []string
	SetupGuide   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter narrows a catalog listing. Zero values match everything.
type ListFilter struct {
	Category string
	Platform workflow.Platform
}
