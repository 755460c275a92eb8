// Package models defines certificate requests and the read projections derived from them.
package models

import (
	"time"

	dErrors "abportal/pkg/domain-errors"
)

// Status is the review state of a certificate request.
//
// Transitions: Pending → Approved, Pending → Rejected. Approved and Rejected are
// terminal.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ParseStatus accepts exactly the three status literals.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be Pending, Approved or Rejected")
	}
	return status, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusPending && target.IsTerminal()
}

func (s Status) String() string { return string(s) }

// CertificateRequest is one issuance request awaiting or bearing a decision.
//
// Invariants:
//   - ID is unique within a store
//   - Status is always one of the three Status values
//   - LastUpdated and Status change together, only via ApplyDecision
type CertificateRequest struct {
	ID                string
	Title             string
	LearnerName       string
	LearnerID         string
	CourseName        string
	AwardingBody      string
	IssuingBody       string
	CertificateNumber string
	// LastUpdated is a display string in the portal locale, not a parseable timestamp.
	LastUpdated string
	Status      Status
	// DecidedAt is zero until the request leaves Pending in this process.
	DecidedAt time.Time
}

// CanDecide reports whether a reviewer may approve or reject the request.
func (r *CertificateRequest) CanDecide() bool {
	return r.Status == StatusPending
}

// ApplyDecision moves the request to target and stamps it. Callers check
// Status.CanTransitionTo first; the store does so under its lock.
func (r *CertificateRequest) ApplyDecision(target Status, now time.Time, stamp string) {
	r.Status = target
	r.LastUpdated = stamp
	r.DecidedAt = now
}
