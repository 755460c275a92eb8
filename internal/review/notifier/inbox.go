// Package notifier provides the delivery sinks for review notifications.
package notifier

import (
	"context"
	"sync"
	"time"

	"abportal/internal/review"
	id "abportal/pkg/domain"
)

const (
	defaultInboxCapacity  = 50
	defaultEndedRetention = 24 * time.Hour
)

// Inbox queues notifications per reviewer session until the session drains them.
// Each session keeps at most capacity entries; the oldest are discarded first.
// Once a session is dropped it accepts nothing more.
type Inbox struct {
	mu       sync.Mutex
	capacity int
	queues   map[id.SessionID][]review.Notification

	// ended remembers dropped sessions until retention passes, long enough to
	// outlive any token for them.
	ended     map[id.SessionID]time.Time
	retention time.Duration
	now       func() time.Time
}

type InboxOption func(*Inbox)

// WithEndedRetention sets how long a dropped session keeps refusing notifications.
func WithEndedRetention(d time.Duration) InboxOption {
	return func(i *Inbox) {
		if d > 0 {
			i.retention = d
		}
	}
}

func WithInboxClock(now func() time.Time) InboxOption {
	return func(i *Inbox) { i.now = now }
}

func NewInbox(capacity int, opts ...InboxOption) *Inbox {
	if capacity <= 0 {
		capacity = defaultInboxCapacity
	}
	i := &Inbox{
		capacity:  capacity,
		queues:    make(map[id.SessionID][]review.Notification),
		ended:     make(map[id.SessionID]time.Time),
		retention: defaultEndedRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Inbox) Notify(_ context.Context, n review.Notification) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, gone := i.ended[n.SessionID]; gone {
		return nil
	}
	q := append(i.queues[n.SessionID], n)
	if len(q) > i.capacity {
		q = q[len(q)-i.capacity:]
	}
	i.queues[n.SessionID] = q
	return nil
}

// Drain returns and clears the session's queued notifications, oldest first.
func (i *Inbox) Drain(session id.SessionID) []review.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	q := i.queues[session]
	delete(i.queues, session)
	return q
}

// Drop discards everything queued for session and refuses later deliveries to it.
func (i *Inbox) Drop(session id.SessionID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.now()
	delete(i.queues, session)
	for s, at := range i.ended {
		if now.Sub(at) >= i.retention {
			delete(i.ended, s)
		}
	}
	i.ended[session] = now
}

// Len reports how many sessions currently hold queued notifications.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.queues)
}
