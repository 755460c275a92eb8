package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL keeps revoked token IDs in process memory. Entries expire with the token.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
	metrics *Metrics
}

type InMemoryTRLOption func(*InMemoryTRL)

func WithMemoryClock(clock Clock) InMemoryTRLOption {
	return func(trl *InMemoryTRL) {
		if clock != nil {
			trl.clock = clock
		}
	}
}

func WithMemoryMetrics(m *Metrics) InMemoryTRLOption {
	return func(trl *InMemoryTRL) { trl.metrics = m }
}

func NewInMemoryTRL(opts ...InMemoryTRLOption) *InMemoryTRL {
	trl := &InMemoryTRL{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(trl)
	}
	return trl
}

// RevokeToken adds a token to the revocation list with TTL.
func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if err := validateJTI(jti); err != nil {
		return err
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	now := t.clock()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked(now)
	t.revoked[jti] = now.Add(ttl)
	return nil
}

// IsRevoked checks if a token is in the revocation list.
func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	defer t.metrics.observe("memory", time.Now())
	if jti == "" {
		return false, nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	expiresAt, ok := t.revoked[jti]
	if !ok {
		return false, nil
	}
	return t.clock().Before(expiresAt), nil
}

// Len counts entries that have not been swept yet.
func (t *InMemoryTRL) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.revoked)
}

func (t *InMemoryTRL) sweepLocked(now time.Time) {
	for jti, expiresAt := range t.revoked {
		if !now.Before(expiresAt) {
			delete(t.revoked, jti)
		}
	}
}
