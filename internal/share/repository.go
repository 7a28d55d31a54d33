package share

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrShareNotFound is returned when a share record is not found.
var ErrShareNotFound = errors.New("share not found")

// ErrAlreadyShared is returned when the workflow is already shared with the email.
var ErrAlreadyShared = errors.New("workflow already shared with this user")

// Repository provides operations on the workflow_shares table.
type Repository interface {
	Create(ctx context.Context, s *Share) error
	GetByID(ctx context.Context, id uuid.UUID) (*Share, error)
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]Share, error)

	// Find returns the share granting workflowID to email, if any.
	Find(ctx context.Context, workflowID uuid.UUID, email string) (*Share, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
