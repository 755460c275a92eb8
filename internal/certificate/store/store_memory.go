// Package store holds the in-memory certificate request collection.
package store

import (
	"context"
	"sync"
	"time"

	"abportal/internal/certificate/models"
	"abportal/pkg/platform/sentinel"
	"abportal/pkg/requestcontext"
)

// Formatter renders the lastUpdated display string for a transition.
type Formatter interface {
	Format(t time.Time) string
}

// Clock returns the time a transition is stamped with.
type Clock func(ctx context.Context) time.Time

// Listener receives the snapshot produced by one mutation.
type Listener func(models.Snapshot)

type Option func(*InMemory)

// WithClock overrides the default request-scoped clock.
func WithClock(clock Clock) Option {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

type subscription struct {
	id uint64
	fn Listener
}

// InMemory is the ordered certificate collection. It starts in the loading state;
// the seed loader calls ReplaceAll then FinishLoading.
//
// All reads and mutations are serialized by mu. Change listeners run after mu is
// released, one snapshot at a time and in version order. A listener that mutates
// the store queues the next snapshot behind the current round.
type InMemory struct {
	mu       sync.RWMutex
	requests []models.CertificateRequest
	index    map[string]int
	loading  bool
	version  uint64

	formatter Formatter
	clock     Clock

	subMu   sync.Mutex
	subs    []subscription
	nextSub uint64

	dispatchMu  sync.Mutex
	pending     []models.Snapshot
	dispatching bool
}

// NewInMemory creates an empty store in the loading state.
func NewInMemory(formatter Formatter, opts ...Option) *InMemory {
	s := &InMemory{
		index:     make(map[string]int),
		loading:   true,
		formatter: formatter,
		clock:     requestcontext.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceAll swaps in a new collection. The first occurrence of a duplicate id wins.
// It returns the number of records kept.
func (s *InMemory) ReplaceAll(_ context.Context, requests []models.CertificateRequest) int {
	kept := make([]models.CertificateRequest, 0, len(requests))
	index := make(map[string]int, len(requests))
	for _, r := range requests {
		if _, dup := index[r.ID]; dup {
			continue
		}
		index[r.ID] = len(kept)
		kept = append(kept, r)
	}

	s.mu.Lock()
	s.requests = kept
	s.index = index
	drain := s.commitLocked()
	s.mu.Unlock()

	if drain {
		s.drain()
	}
	return len(kept)
}

// FinishLoading clears the loading flag. Only the first call has an effect.
func (s *InMemory) FinishLoading(_ context.Context) {
	s.mu.Lock()
	if !s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = false
	drain := s.commitLocked()
	s.mu.Unlock()

	if drain {
		s.drain()
	}
}

// Loading reports whether the initial load is still in flight.
func (s *InMemory) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Transition moves a Pending request to target (Approved or Rejected), rewriting
// lastUpdated from the clock in the same critical section. Unknown ids, terminal
// requests and non-terminal targets are no-ops that return false.
func (s *InMemory) Transition(ctx context.Context, id string, target models.Status) bool {
	if !target.IsTerminal() {
		return false
	}
	now := s.clock(ctx)

	s.mu.Lock()
	i, ok := s.index[id]
	if !ok || !s.requests[i].Status.CanTransitionTo(target) {
		s.mu.Unlock()
		return false
	}
	s.requests[i].ApplyDecision(target, now, s.formatter.Format(now))
	drain := s.commitLocked()
	s.mu.Unlock()

	if drain {
		s.drain()
	}
	return true
}

// GetByID returns a copy of the request or sentinel.ErrNotFound.
func (s *InMemory) GetByID(_ context.Context, id string) (models.CertificateRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.CertificateRequest{}, sentinel.ErrNotFound
	}
	return s.requests[i], nil
}

// List returns a copy of the collection in order.
func (s *InMemory) List(_ context.Context) []models.CertificateRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *InMemory) PendingCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CountPending(s.requests)
}

// GroupByIssuingBody partitions the collection by issuing body in first-appearance order.
func (s *InMemory) GroupByIssuingBody(_ context.Context) models.Groups {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.GroupRequests(s.requests)
}

func (s *InMemory) Snapshot(_ context.Context) models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every later mutation. The returned func removes it
// and is safe to call more than once.
func (s *InMemory) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextSub++
	subID := s.nextSub
	s.subs = append(s.subs, subscription{id: subID, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == subID {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *InMemory) copyLocked() []models.CertificateRequest {
	out := make([]models.CertificateRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *InMemory) snapshotLocked() models.Snapshot {
	return models.Snapshot{
		Version:      s.version,
		Loading:      s.loading,
		Requests:     s.copyLocked(),
		PendingCount: models.CountPending(s.requests),
	}
}

// commitLocked bumps the version and queues the resulting snapshot while mu is
// still held, so queue order matches version order. It reports whether the
// caller must deliver the queue after unlocking.
func (s *InMemory) commitLocked() bool {
	s.version++
	snap := s.snapshotLocked()

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.pending = append(s.pending, snap)
	if s.dispatching {
		return false
	}
	s.dispatching = true
	return true
}

func (s *InMemory) drain() {
	s.dispatchMu.Lock()
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.dispatchMu.Unlock()

		for _, fn := range s.listeners() {
			fn(next)
		}

		s.dispatchMu.Lock()
	}
	s.dispatching = false
	s.dispatchMu.Unlock()
}

func (s *InMemory) listeners() []Listener {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	out := make([]Listener, len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.fn
	}
	return out
}
