package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "abportal/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// Validate implements httputil.Validatable.
func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return dErrors.New(dErrors.CodeValidation, describe(fieldErrs[0]))
		}
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid login request")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "max":
		return field + " is too long"
	default:
		return field + " is invalid"
	}
}
