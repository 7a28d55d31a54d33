package validation

import (
	"strings"

	"github.com/workflowai/workflowai/internal/workflow"
)

// GenerateRequest mirrors the fields needed for generation validation.
type GenerateRequest struct {
	Description string
	Platform    string
}

// ValidateGenerateRequest validates the fields of a generation request.
func ValidateGenerateRequest(req GenerateRequest) []FieldError {
	var errs []FieldError

	description := strings.TrimSpace(req.Description)
	if description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "description is required"})
	} else if len(description) > 4000 {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 4000 characters"})
	}

	if req.Platform == "" {
		errs = append(errs, FieldError{Field: "platform", Message: "platform is required"})
	} else if !workflow.Platform(req.Platform).Valid() {
		errs = append(errs, FieldError{Field: "platform", Message: `platform must be one of: "both", "make", "n8n"`})
	}

	return errs
}
