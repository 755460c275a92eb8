package models

import (
	"time"
)

// Limit is the number of requests a key may make inside one sliding window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Enabled reports whether the limit should be enforced at all.
func (l Limit) Enabled() bool {
	return l.RequestsPerWindow > 0 && l.Window > 0
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the body of a 429.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// NewKey namespaces a limiter key by endpoint class.
func NewKey(class, identifier string) string {
	return "rl:" + class + ":" + identifier
}
