// Package seed performs the one-shot load of the initial certificate collection.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"abportal/internal/certificate/metrics"
	"abportal/internal/certificate/models"
	"abportal/internal/platform/otel"
	"abportal/pkg/platform/sentinel"
)

// Mode decides what happens to a document that parses but carries bad records.
type Mode string

const (
	// ModeLenient drops invalid and duplicate records, keeping the rest.
	ModeLenient Mode = "lenient"
	// ModeStrict treats any invalid or duplicate record as a malformed document.
	ModeStrict Mode = "strict"
)

// ParseMode maps a config value to a Mode, defaulting to lenient.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLenient:
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown seed mode %q", s)
}

//go:generate mockgen -source=loader.go -destination=mocks/mocks.go -package=mocks Store

// Store is the part of the certificate store the loader writes to.
type Store interface {
	ReplaceAll(ctx context.Context, requests []models.CertificateRequest) int
	FinishLoading(ctx context.Context)
}

// Loader fetches the seed document once and hands the result to the store.
type Loader struct {
	source   Source
	store    Store
	mode     Mode
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	validate *validator.Validate
}

type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

func WithMode(mode Mode) Option {
	return func(l *Loader) { l.mode = mode }
}

// WithTimeout bounds the fetch. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(l *Loader) { l.tracer = tracer }
}

func New(source Source, store Store, opts ...Option) *Loader {
	l := &Loader{
		source:   source,
		store:    store,
		mode:     ModeLenient,
		logger:   slog.Default(),
		tracer:   otel.Tracer("seed"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and decodes the document. Any failure yields an empty collection and
// exactly one error-level diagnostic carrying the cause.
func (l *Loader) Load(ctx context.Context) []models.CertificateRequest {
	start := time.Now()
	ctx, span := l.tracer.Start(ctx, "seed.load",
		trace.WithAttributes(attribute.String("seed.source", l.source.Location()), attribute.String("seed.mode", string(l.mode))))
	defer span.End()

	requests, err := l.load(ctx)
	if err != nil {
		outcome := metrics.OutcomeUnavailable
		if errors.Is(err, sentinel.ErrMalformed) {
			outcome = metrics.OutcomeMalformed
		}
		l.logger.ErrorContext(ctx, "seed load failed",
			"source", l.source.Location(),
			"outcome", outcome,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if l.metrics != nil {
			l.metrics.RecordLoad(outcome, 0, start)
		}
		return []models.CertificateRequest{}
	}

	span.SetAttributes(attribute.Int("seed.records", len(requests)))
	if l.metrics != nil {
		l.metrics.RecordLoad(metrics.OutcomeLoaded, len(requests), start)
	}
	l.logger.InfoContext(ctx, "seed loaded",
		"source", l.source.Location(),
		"records", len(requests),
	)
	return requests
}

func (l *Loader) load(ctx context.Context) ([]models.CertificateRequest, error) {
	data, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	requests, rejected, err := parse(data, l.validate)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 && l.mode == ModeStrict {
		return nil, rejected[0].Err
	}
	for _, r := range rejected {
		l.logger.WarnContext(ctx, "seed record dropped",
			"index", r.Index,
			"id", r.ID,
			"error", r.Err,
		)
		if l.metrics != nil {
			l.metrics.IncrementDropped()
		}
	}
	return requests, nil
}

// Run performs the load and moves the store from loading to idle exactly once.
// If ctx is cancelled before the load completes the store is left untouched and
// ctx.Err() is returned.
func (l *Loader) Run(ctx context.Context) error {
	loadCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	requests := l.Load(loadCtx)
	if err := ctx.Err(); err != nil {
		return err
	}
	l.store.ReplaceAll(ctx, requests)
	l.store.FinishLoading(ctx)
	return nil
}
