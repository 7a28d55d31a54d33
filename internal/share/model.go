package share

import (
	"time"

	"github.com/google/uuid"
)

// Permission is the access level granted by a share.
type Permission string

const (
	PermissionView  Permission = "view"
	PermissionEdit  Permission = "edit"
	PermissionAdmin Permission = "admin"
)

// Valid reports whether p is a known permission level.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit || p == PermissionAdmin
}

// CanEdit reports whether the permission allows modifying the workflow.
func (p Permission) CanEdit() bool {
	return p == PermissionEdit || p == PermissionAdmin
}

// Share represents a row in the workflow_shares table: one grant of access
// from a workflow to a collaborator identified by email. At most one share
// exists per (workflow, email) pair.
type Share struct {
	ID              uuid.UUID
	WorkflowID      uuid.UUID
	SharedWithEmail string
	Permission      Permission
	SharedByEmail   string
	CreatedAt       time.Time
}
