package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrWorkflowNotFound is returned when a workflow record is not found.
var ErrWorkflowNotFound = errors.New("workflow not found")

// Repository provides CRUD operations on the workflows table.
type Repository interface {
	Create(ctx context.Context, w *Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*Workflow, error)

	// ListByOwner returns the owner's workflows, newest first.
	ListByOwner(ctx context.Context, ownerEmail string) ([]Workflow, error)

	// ListSharedWith returns workflows shared with the given email, newest
	// share first.
	ListSharedWith(ctx context.Context, email string) ([]Workflow, error)

	// CountByOwner feeds the free-tier save gate.
	CountByOwner(ctx context.Context, ownerEmail string) (int, error)

	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Workflow, error)

	// AdjustShareCount moves sharedCount by delta (floored at zero) and keeps
	// the isShared flag in step with the resulting count.
	AdjustShareCount(ctx context.Context, id uuid.UUID, delta int) error

	Delete(ctx context.Context, id uuid.UUID) error
}
