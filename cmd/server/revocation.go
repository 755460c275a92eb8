package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	authservice "abportal/internal/auth/service"
	"abportal/internal/auth/store/revocation"
	"abportal/internal/platform/redis"
)

// newRevocationList picks the shared backend when one is configured: Redis first,
// then Postgres, else process memory.
func newRevocationList(ctx context.Context, redisClient *redis.Client, db *sql.DB, m *revocation.Metrics, logger *slog.Logger) (authservice.TokenRevocationList, error) {
	switch {
	case redisClient != nil:
		logger.InfoContext(ctx, "token revocation list backed by redis")
		return revocation.NewRedisTRL(redisClient.Client, revocation.WithRedisMetrics(m)), nil
	case db != nil:
		trl := revocation.NewPostgresTRL(db, revocation.WithPostgresMetrics(m))
		if err := trl.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		if purged, err := trl.PurgeExpired(ctx); err != nil {
			logger.WarnContext(ctx, "failed to purge expired revocations", "error", err)
		} else if purged > 0 {
			logger.InfoContext(ctx, "purged expired revocations", "count", purged)
		}
		logger.InfoContext(ctx, "token revocation list backed by postgres")
		return trl, nil
	default:
		logger.InfoContext(ctx, "token revocation list held in memory")
		return revocation.NewInMemoryTRL(revocation.WithMemoryClock(time.Now), revocation.WithMemoryMetrics(m)), nil
	}
}
