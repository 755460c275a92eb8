package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"abportal/internal/review"
)

// Publisher is the producer side of the notification stream.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// Kafka publishes notifications keyed by certificate id, so every decision for one
// certificate lands on the same partition.
type Kafka struct {
	publisher Publisher
}

func NewKafka(publisher Publisher) *Kafka {
	return &Kafka{publisher: publisher}
}

type event struct {
	CertificateID string    `json:"certificate_id"`
	Decision      string    `json:"decision"`
	Kind          string    `json:"kind"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	LearnerName   string    `json:"learner_name"`
	SessionID     string    `json:"session_id"`
	ReviewerID    string    `json:"reviewer_id,omitempty"`
	At            time.Time `json:"at"`
}

func (k *Kafka) Notify(ctx context.Context, n review.Notification) error {
	ev := event{
		CertificateID: n.CertificateID,
		Decision:      n.Decision.String(),
		Kind:          string(n.Kind),
		Title:         n.Title,
		Message:       n.Message,
		LearnerName:   n.LearnerName,
		SessionID:     n.SessionID.String(),
		At:            n.At.UTC(),
	}
	if !n.ReviewerID.IsNil() {
		ev.ReviewerID = n.ReviewerID.String()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return k.publisher.Publish(ctx, n.CertificateID, value, map[string]string{
		"decision": ev.Decision,
	})
}
