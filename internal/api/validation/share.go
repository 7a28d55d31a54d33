package validation

import (
	"strings"

	"github.com/workflowai/workflowai/internal/share"
)

// CreateShareRequest mirrors the fields needed for share validation.
type CreateShareRequest struct {
	Email      string
	Permission string
}

// ValidateCreateShareRequest validates the fields of a create share request.
func ValidateCreateShareRequest(req CreateShareRequest) []FieldError {
	var errs []FieldError

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if !EmailRegex.MatchString(email) {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	if req.Permission == "" {
		errs = append(errs, FieldError{Field: "permission", Message: "permission is required"})
	} else if !share.Permission(req.Permission).Valid() {
		errs = append(errs, FieldError{Field: "permission", Message: `permission must be one of: "admin", "edit", "view"`})
	}

	return errs
}
