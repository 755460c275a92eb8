package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./data.json", cfg.Seed.Path)
	assert.Equal(t, SeedModeLenient, cfg.Seed.Mode)
	assert.Zero(t, cfg.Seed.Timeout)
	assert.Equal(t, "en-US", cfg.Locale.Tag)
	assert.Equal(t, "Local", cfg.Locale.TimeZone)
	assert.Equal(t, 8*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "ab@portal.com", cfg.Auth.ReviewerEmail)
	assert.Equal(t, "Awarding Body Reviewer", cfg.Auth.ReviewerName)
	assert.True(t, cfg.UsesDevSigningKey())
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Limits.LoginRequests)
	assert.Equal(t, time.Minute, cfg.Limits.LoginWindow)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("ABPORTAL_ADDR", ":9090")
	t.Setenv("SEED_URL", "http://seed.local/data.json")
	t.Setenv("SEED_MODE", "strict")
	t.Setenv("SEED_TIMEOUT", "5s")
	t.Setenv("LOCALE", "en-GB")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SIGNING_KEY", "another-key")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "http://seed.local/data.json", cfg.Seed.URL)
	assert.Equal(t, SeedModeStrict, cfg.Seed.Mode)
	assert.Equal(t, 5*time.Second, cfg.Seed.Timeout)
	assert.Equal(t, "en-GB", cfg.Locale.Tag)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.UsesDevSigningKey())
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown seed mode", "SEED_MODE", "loose"},
		{"negative timeout", "SEED_TIMEOUT", "-1s"},
		{"zero session ttl", "SESSION_TTL", "0s"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"unparseable duration", "SESSION_TTL", "soon"},
		{"negative login limit", "LOGIN_RATE_LIMIT", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
