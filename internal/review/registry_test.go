package review_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abportal/internal/certificate/models"
	"abportal/internal/certificate/store"
	"abportal/internal/platform/locale"
	"abportal/internal/review"
	"abportal/internal/review/metrics"
	id "abportal/pkg/domain"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory(locale.MustNew("en-US", "UTC"))
	st.ReplaceAll(ctx, []models.CertificateRequest{pending("cr-1", "Asha", "B1")})
	st.FinishLoading(ctx)
	m := metrics.New(prometheus.NewRegistry())
	registry := review.NewRegistry(st, nil, locale.MustNew("en-US", "UTC"), review.WithMetrics(m))

	alice := id.NewSessionID()
	bob := id.NewSessionID()

	t.Run("coordinators are per session and reused", func(t *testing.T) {
		c1 := registry.For(alice)
		assert.Same(t, c1, registry.For(alice))
		assert.NotSame(t, c1, registry.For(bob))
		assert.Equal(t, 2, registry.Len())
		assert.Equal(t, float64(2), promtest.ToFloat64(m.OpenSessions))
	})

	t.Run("review targets do not leak across sessions", func(t *testing.T) {
		require.NoError(t, registry.For(alice).Open(ctx, "cr-1"))
		_, open := registry.For(bob).Target(ctx)
		assert.False(t, open)
	})

	t.Run("drop discards the open review", func(t *testing.T) {
		registry.Drop(alice)
		assert.Equal(t, 1, registry.Len())
		_, open := registry.For(alice).Target(ctx)
		assert.False(t, open)
	})
}
