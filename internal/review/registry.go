package review

import (
	"sync"

	id "abportal/pkg/domain"
)

// Registry keeps one Coordinator per reviewer session.
type Registry struct {
	deps

	mu           sync.Mutex
	coordinators map[id.SessionID]*Coordinator
}

func NewRegistry(store Store, notifier Notifier, translator Translator, opts ...Option) *Registry {
	return &Registry{
		deps:         newDeps(store, notifier, translator, opts),
		coordinators: make(map[id.SessionID]*Coordinator),
	}
}

// For returns the session's coordinator, creating it on first use.
func (r *Registry) For(session id.SessionID) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coordinators[session]
	if !ok {
		c = &Coordinator{deps: r.deps, session: session}
		r.coordinators[session] = c
		r.reportSessions()
	}
	return c
}

// Drop forgets the session's coordinator and its open review.
func (r *Registry) Drop(session id.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.coordinators, session)
	r.reportSessions()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.coordinators)
}

func (r *Registry) reportSessions() {
	if r.metrics != nil {
		r.metrics.SetSessions(len(r.coordinators))
	}
}
