package template

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTemplateNotFound is returned when a template record is not found.
var ErrTemplateNotFound = errors.New("template not found")

// Repository provides read access to the template catalog plus the seed upsert.
type Repository interface {
	// List returns catalog entries matching the filter, most popular first.
	List(ctx context.Context, filter ListFilter) ([]Template, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)

	// Upsert inserts a seed entry or refreshes an existing one by name.
	Upsert(ctx context.Context, t *Template) error
}
