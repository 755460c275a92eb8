package handler

import (
	"strings"

	dErrors "abportal/pkg/domain-errors"
)

// OpenReviewRequest is the HTTP request body for POST /api/review/open.
type OpenReviewRequest struct {
	ID string `json:"id"`
}

// Validate implements httputil.Validatable.
func (r *OpenReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if len(r.ID) > 128 {
		return dErrors.New(dErrors.CodeValidation, "id must be at most 128 characters")
	}
	return nil
}
