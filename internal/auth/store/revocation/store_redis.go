package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"abportal/pkg/platform/sentinel"
)

const (
	// Redis key prefix for revoked tokens
	revokedTokenKeyPrefix = "abportal:trl:jti:"
)

// RedisTRL is a Redis-backed token revocation list, shared by every portal instance.
type RedisTRL struct {
	client  *redis.Client
	metrics *Metrics
}

// RedisTRLOption configures a RedisTRL instance.
type RedisTRLOption func(*RedisTRL)

func WithRedisMetrics(m *Metrics) RedisTRLOption {
	return func(trl *RedisTRL) { trl.metrics = m }
}

// NewRedisTRL constructs a Redis-backed token revocation list.
func NewRedisTRL(client *redis.Client, opts ...RedisTRLOption) *RedisTRL {
	trl := &RedisTRL{
		client: client,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(trl)
		}
	}
	return trl
}

// RevokeToken marks jti revoked. The key expires together with the token.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if err := validateJTI(jti); err != nil {
		return err
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if err := t.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// IsRevoked returns false when the key is absent or has expired.
func (t *RedisTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	defer t.metrics.observe("redis", time.Now())

	if jti == "" {
		return false, nil
	}
	_, err := t.client.Get(ctx, revokedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w: %w", sentinel.ErrUnavailable, err)
	}
	return true, nil
}
