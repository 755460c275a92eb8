package seed

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"abportal/internal/certificate/models"
	dErrors "abportal/pkg/domain-errors"
	"abportal/pkg/platform/sentinel"
)

// document is the wire shape of the seed file. Unknown fields are ignored.
type document struct {
	CertificateRequests *[]json.RawMessage `json:"certificateRequests"`
}

// record fields are pointers so "required" means present: an empty string is kept,
// a missing or null field rejects the record.
type record struct {
	ID                *string `json:"id" validate:"required"`
	Title             *string `json:"title" validate:"required"`
	LearnerName       *string `json:"learnerName" validate:"required"`
	LearnerID         *string `json:"learnerId" validate:"required"`
	CourseName        *string `json:"courseName" validate:"required"`
	AwardingBody      *string `json:"awardingBody" validate:"required"`
	IssuingBody       *string `json:"issuingBody" validate:"required"`
	CertificateNumber *string `json:"certificateNumber" validate:"required"`
	LastUpdated       *string `json:"lastUpdated" validate:"required"`
	Status            *string `json:"status" validate:"required,oneof=Pending Approved Rejected"`
}

func (r record) id() string {
	return value(r.ID)
}

func (r record) toModel() models.CertificateRequest {
	return models.CertificateRequest{
		ID:                value(r.ID),
		Title:             value(r.Title),
		LearnerName:       value(r.LearnerName),
		LearnerID:         value(r.LearnerID),
		CourseName:        value(r.CourseName),
		AwardingBody:      value(r.AwardingBody),
		IssuingBody:       value(r.IssuingBody),
		CertificateNumber: value(r.CertificateNumber),
		LastUpdated:       value(r.LastUpdated),
		Status:            models.Status(value(r.Status)),
	}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// rejection describes one record that did not make it into the collection.
type rejection struct {
	Index int
	ID    string
	Err   error
}

func malformed(format string, args ...any) error {
	return dErrors.Wrap(fmt.Errorf("%w: "+format, append([]any{sentinel.ErrMalformed}, args...)...), dErrors.CodeValidation, "seed document malformed")
}

// parse decodes the document envelope and every record. It returns the valid,
// first-seen records and one rejection per invalid or duplicate record. A missing
// or non-array certificateRequests member fails the whole document.
func parse(data []byte, validate *validator.Validate) ([]models.CertificateRequest, []rejection, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, malformed("decode document: %w", err)
	}
	if doc.CertificateRequests == nil {
		return nil, nil, malformed("certificateRequests missing")
	}

	raw := *doc.CertificateRequests
	out := make([]models.CertificateRequest, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	var rejected []rejection
	for i, msg := range raw {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			rejected = append(rejected, rejection{Index: i, Err: malformed("record %d: %w", i, err)})
			continue
		}
		if err := validate.Struct(rec); err != nil {
			rejected = append(rejected, rejection{Index: i, ID: rec.id(), Err: malformed("record %d: %w", i, err)})
			continue
		}
		if _, dup := seen[rec.id()]; dup {
			rejected = append(rejected, rejection{Index: i, ID: rec.id(), Err: malformed("record %d: duplicate id %q", i, rec.id())})
			continue
		}
		seen[rec.id()] = struct{}{}
		out = append(out, rec.toModel())
	}
	return out, rejected, nil
}
