package handler

import (
	"context"
	"time"

	"abportal/internal/certificate/models"
	"abportal/internal/review"
)

type CertificateResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	LearnerName       string     `json:"learner_name"`
	LearnerID         string     `json:"learner_id"`
	CourseName        string     `json:"course_name"`
	AwardingBody      string     `json:"awarding_body"`
	IssuingBody       string     `json:"issuing_body"`
	CertificateNumber string     `json:"certificate_number"`
	LastUpdated       string     `json:"last_updated"`
	Status            string     `json:"status"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
	CanDecide         bool       `json:"can_decide"`
}

type ListResponse struct {
	Version      uint64                `json:"version"`
	Loading      bool                  `json:"loading"`
	PendingCount int                   `json:"pending_count"`
	Certificates []CertificateResponse `json:"certificates"`
}

type GroupResponse struct {
	IssuingBody  string                `json:"issuing_body"`
	Count        int                   `json:"count"`
	Certificates []CertificateResponse `json:"certificates"`
}

type GroupedResponse struct {
	Version      uint64          `json:"version"`
	Loading      bool            `json:"loading"`
	PendingCount int             `json:"pending_count"`
	Groups       []GroupResponse `json:"groups"`
}

type ReviewResponse struct {
	Target    *CertificateResponse `json:"target"`
	CanDecide bool                 `json:"can_decide"`
}

type NotificationResponse struct {
	Kind          string    `json:"kind"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	CertificateID string    `json:"certificate_id"`
	LearnerName   string    `json:"learner_name"`
	Decision      string    `json:"decision"`
	At            time.Time `json:"at"`
}

type DecisionResponse struct {
	Applied      bool                  `json:"applied"`
	Notification *NotificationResponse `json:"notification,omitempty"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

func toCertificateResponse(r models.CertificateRequest) CertificateResponse {
	resp := CertificateResponse{
		ID:                r.ID,
		Title:             r.Title,
		LearnerName:       r.LearnerName,
		LearnerID:         r.LearnerID,
		CourseName:        r.CourseName,
		AwardingBody:      r.AwardingBody,
		IssuingBody:       r.IssuingBody,
		CertificateNumber: r.CertificateNumber,
		LastUpdated:       r.LastUpdated,
		Status:            r.Status.String(),
		CanDecide:         r.CanDecide(),
	}
	if !r.DecidedAt.IsZero() {
		decidedAt := r.DecidedAt
		resp.DecidedAt = &decidedAt
	}
	return resp
}

func toCertificateResponses(requests []models.CertificateRequest) []CertificateResponse {
	out := make([]CertificateResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toCertificateResponse(r))
	}
	return out
}

func toListResponse(s models.Snapshot) ListResponse {
	return ListResponse{
		Version:      s.Version,
		Loading:      s.Loading,
		PendingCount: s.PendingCount,
		Certificates: toCertificateResponses(s.Requests),
	}
}

func toGroupedResponse(s models.Snapshot) GroupedResponse {
	groups := models.GroupRequests(s.Requests)
	resp := GroupedResponse{
		Version:      s.Version,
		Loading:      s.Loading,
		PendingCount: s.PendingCount,
		Groups:       make([]GroupResponse, 0, len(groups)),
	}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, GroupResponse{
			IssuingBody:  g.IssuingBody,
			Count:        len(g.Requests),
			Certificates: toCertificateResponses(g.Requests),
		})
	}
	return resp
}

func toReviewResponse(ctx context.Context, c *review.Coordinator) ReviewResponse {
	target, ok := c.Target(ctx)
	if !ok {
		return ReviewResponse{}
	}
	resp := toCertificateResponse(target)
	return ReviewResponse{Target: &resp, CanDecide: resp.CanDecide}
}

func toNotificationResponse(n review.Notification) NotificationResponse {
	return NotificationResponse{
		Kind:          string(n.Kind),
		Title:         n.Title,
		Message:       n.Message,
		CertificateID: n.CertificateID,
		LearnerName:   n.LearnerName,
		Decision:      n.Decision.String(),
		At:            n.At,
	}
}
