package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"abportal/internal/review"
	"abportal/pkg/platform/circuit"
	"abportal/pkg/requestcontext"
)

const defaultProbeInterval = 10 * time.Second

// Guarded puts a circuit breaker in front of a sink that can fail, such as the
// broker. While the circuit is open, notifications are dropped except for one
// probe per interval, and delivery errors are not reported to the caller.
type Guarded struct {
	next          review.Notifier
	breaker       *circuit.Breaker
	logger        *slog.Logger
	probeInterval time.Duration

	mu        sync.Mutex
	lastProbe time.Time
}

type GuardedOption func(*Guarded)

func WithProbeInterval(d time.Duration) GuardedOption {
	return func(g *Guarded) {
		if d > 0 {
			g.probeInterval = d
		}
	}
}

func NewGuarded(next review.Notifier, breaker *circuit.Breaker, logger *slog.Logger, opts ...GuardedOption) *Guarded {
	g := &Guarded{
		next:          next,
		breaker:       breaker,
		logger:        logger,
		probeInterval: defaultProbeInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) Notify(ctx context.Context, n review.Notification) error {
	if g.breaker.IsOpen() && !g.probeDue(requestcontext.Now(ctx)) {
		g.logger.DebugContext(ctx, "notification dropped while sink circuit is open",
			"request_id", requestcontext.RequestID(ctx),
			"circuit", g.breaker.Name(),
			"certificate_id", n.CertificateID,
		)
		return nil
	}

	err := g.next.Notify(ctx, n)
	if err != nil {
		useFallback, change := g.breaker.RecordFailure()
		if change.Opened {
			g.markProbe(requestcontext.Now(ctx))
			g.logger.WarnContext(ctx, "notification sink circuit opened",
				"request_id", requestcontext.RequestID(ctx),
				"circuit", g.breaker.Name(),
				"error", err,
			)
		}
		if useFallback {
			return nil
		}
		return err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "notification sink circuit closed",
			"request_id", requestcontext.RequestID(ctx),
			"circuit", g.breaker.Name(),
		)
	}
	return nil
}

func (g *Guarded) probeDue(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.Sub(g.lastProbe) < g.probeInterval {
		return false
	}
	g.lastProbe = now
	return true
}

func (g *Guarded) markProbe(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastProbe = now
}
