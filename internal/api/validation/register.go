package validation

import "strings"

// RegisterRequest mirrors the fields needed for registration validation.
type RegisterRequest struct {
	Email    string
	FullName string
}

// ValidateRegisterRequest validates the fields of a registration request.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	var errs []FieldError

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if !EmailRegex.MatchString(email) {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	if len(req.FullName) > 200 {
		errs = append(errs, FieldError{Field: "fullName", Message: "fullName must be at most 200 characters"})
	}

	return errs
}
