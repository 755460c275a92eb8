package revocation

import (
	"fmt"
	"time"

	"abportal/pkg/platform/sentinel"
)

// Clock returns the current time.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

func validateJTI(jti string) error {
	if jti == "" {
		return fmt.Errorf("jti is required: %w", sentinel.ErrInvalidState)
	}
	return nil
}
