// Package review turns reviewer intents into store transitions and notifications.
package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"abportal/internal/certificate/models"
	"abportal/internal/platform/locale"
	"abportal/internal/platform/otel"
	"abportal/internal/review/metrics"
	id "abportal/pkg/domain"
	dErrors "abportal/pkg/domain-errors"
	"abportal/pkg/platform/sentinel"
	"abportal/pkg/requestcontext"
)

//go:generate mockgen -source=coordinator.go -destination=mocks/mocks.go -package=mocks Store,Notifier

// Store is the certificate store as seen by the coordinator.
type Store interface {
	GetByID(ctx context.Context, id string) (models.CertificateRequest, error)
	Transition(ctx context.Context, id string, target models.Status) bool
}

// Notifier delivers a notification after a decision has been applied.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Translator renders catalog messages in the portal language.
type Translator interface {
	Sprintf(key string, args ...any) string
}

type deps struct {
	store      Store
	notifier   Notifier
	translator Translator
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*deps)

func WithLogger(logger *slog.Logger) Option {
	return func(d *deps) { d.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *deps) { d.tracer = tracer }
}

func newDeps(store Store, notifier Notifier, translator Translator, opts []Option) deps {
	d := deps{
		store:      store,
		notifier:   notifier,
		translator: translator,
		logger:     slog.Default(),
		tracer:     otel.Tracer("review"),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Coordinator holds one reviewer's open review and applies decisions to it.
// It only offers a decision while the target exists and is Pending.
type Coordinator struct {
	deps
	session id.SessionID

	mu     sync.Mutex
	target string
}

// New builds a coordinator for a single session.
func New(session id.SessionID, store Store, notifier Notifier, translator Translator, opts ...Option) *Coordinator {
	return &Coordinator{deps: newDeps(store, notifier, translator, opts), session: session}
}

// Open makes certificate id the review target. Unknown ids are rejected and the
// current target is kept.
func (c *Coordinator) Open(ctx context.Context, certificateID string) error {
	certificateID = strings.TrimSpace(certificateID)
	if certificateID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if _, err := c.store.GetByID(ctx, certificateID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "certificate request not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate request")
	}

	c.mu.Lock()
	c.target = certificateID
	c.mu.Unlock()
	return nil
}

// Close clears the review target.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.target = ""
	c.mu.Unlock()
}

// Target returns the current target as the store sees it now.
func (c *Coordinator) Target(ctx context.Context) (models.CertificateRequest, bool) {
	c.mu.Lock()
	target := c.target
	c.mu.Unlock()
	return c.lookup(ctx, target)
}

// CanDecide reports whether approve and reject should be offered.
func (c *Coordinator) CanDecide(ctx context.Context) bool {
	req, ok := c.Target(ctx)
	return ok && req.CanDecide()
}

// Approve applies Approved to a Pending target, closes the review and emits a
// success notification. It returns false and does nothing otherwise.
func (c *Coordinator) Approve(ctx context.Context) (Notification, bool) {
	return c.decide(ctx, models.StatusApproved)
}

// Reject is Approve with Rejected and a destructive notification.
func (c *Coordinator) Reject(ctx context.Context) (Notification, bool) {
	return c.decide(ctx, models.StatusRejected)
}

func (c *Coordinator) decide(ctx context.Context, decision models.Status) (Notification, bool) {
	label := strings.ToLower(decision.String())
	ctx, span := c.tracer.Start(ctx, "review."+label)
	defer span.End()

	n, ok := c.apply(ctx, decision)
	span.SetAttributes(attribute.Bool("review.applied", ok))
	if !ok {
		if c.metrics != nil {
			c.metrics.IncrementRefused(label)
		}
		return Notification{}, false
	}
	span.SetAttributes(attribute.String("review.certificate_id", n.CertificateID))

	if c.metrics != nil {
		c.metrics.IncrementDecision(label)
	}
	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, n); err != nil {
			c.logger.WarnContext(ctx, "review notification delivery failed",
				"request_id", requestcontext.RequestID(ctx),
				"certificate_id", n.CertificateID,
				"error", err,
			)
		}
	}
	return n, true
}

// apply runs the guarded transition under the coordinator lock so two intents
// from the same session cannot both pass the Pending check.
func (c *Coordinator) apply(ctx context.Context, decision models.Status) (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.lookup(ctx, c.target)
	if !ok || !req.CanDecide() {
		c.logger.DebugContext(ctx, "review decision refused",
			"request_id", requestcontext.RequestID(ctx),
			"certificate_id", c.target,
			"decision", decision,
		)
		return Notification{}, false
	}
	if !c.store.Transition(ctx, req.ID, decision) {
		c.logger.DebugContext(ctx, "review decision lost to a concurrent transition",
			"request_id", requestcontext.RequestID(ctx),
			"certificate_id", req.ID,
			"decision", decision,
		)
		return Notification{}, false
	}
	c.target = ""
	return c.notification(ctx, req, decision), true
}

func (c *Coordinator) lookup(ctx context.Context, certificateID string) (models.CertificateRequest, bool) {
	if certificateID == "" {
		return models.CertificateRequest{}, false
	}
	req, err := c.store.GetByID(ctx, certificateID)
	if err != nil {
		return models.CertificateRequest{}, false
	}
	return req, true
}

func (c *Coordinator) notification(ctx context.Context, req models.CertificateRequest, decision models.Status) Notification {
	kind, title, message := KindSuccess, locale.MsgApprovedTitle, locale.MsgApprovedMessage
	if decision == models.StatusRejected {
		kind, title, message = KindDestructive, locale.MsgRejectedTitle, locale.MsgRejectedMessage
	}
	return Notification{
		Kind:          kind,
		Title:         c.translator.Sprintf(title),
		Message:       c.translator.Sprintf(message, req.LearnerName),
		CertificateID: req.ID,
		LearnerName:   req.LearnerName,
		Decision:      decision,
		SessionID:     c.session,
		ReviewerID:    requestcontext.UserID(ctx),
		At:            requestcontext.Now(ctx),
	}
}
