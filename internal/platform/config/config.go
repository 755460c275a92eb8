package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Seed decode modes.
const (
	SeedModeLenient = "lenient"
	SeedModeStrict  = "strict"
)

// Server captures process level configuration.
type Server struct {
	Addr     string `env:"ABPORTAL_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat is "json" or "text".
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Seed   Seed
	Locale Locale
	Auth   Auth
	Limits Limits

	RedisURL     string `env:"REDIS_URL"`
	DatabaseURL  string `env:"DATABASE_URL"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	// TrustedProxies are CIDRs or addresses allowed to supply X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	Kafka          Kafka
}

// Seed locates the initial certificate document. URL wins over Path when both are set.
type Seed struct {
	URL     string        `env:"SEED_URL"`
	Path    string        `env:"SEED_PATH" envDefault:"./data.json"`
	Mode    string        `env:"SEED_MODE" envDefault:"lenient"`
	Timeout time.Duration `env:"SEED_TIMEOUT" envDefault:"0s"`
}

// Locale drives the lastUpdated format and notification language.
type Locale struct {
	Tag      string `env:"LOCALE" envDefault:"en-US"`
	TimeZone string `env:"TIMEZONE" envDefault:"Local"`
}

// Auth holds session signing and the configured reviewer account.
type Auth struct {
	JWTSigningKey    string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer        string        `env:"JWT_ISSUER" envDefault:"abportal"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	ReviewerEmail    string        `env:"REVIEWER_EMAIL" envDefault:"ab@portal.com"`
	ReviewerPassword string        `env:"REVIEWER_PASSWORD" envDefault:"Abc@123"`
	ReviewerName     string        `env:"REVIEWER_NAME" envDefault:"Awarding Body Reviewer"`
}

// Limits throttles credential checks per client address. A zero count disables it.
type Limits struct {
	LoginRequests int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginWindow   time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
	Disabled      bool          `env:"DISABLE_RATE_LIMITING" envDefault:"false"`
}

type Kafka struct {
	Brokers            []string `env:"KAFKA_BROKERS" envSeparator:","`
	NotificationsTopic string   `env:"KAFKA_NOTIFICATIONS_TOPIC" envDefault:"abportal.review.notifications"`
}

// UsesDevSigningKey reports whether sessions are signed with the built-in development key.
func (s Server) UsesDevSigningKey() bool {
	return s.Auth.JWTSigningKey == devSigningKey
}

// FromEnv loads an optional .env file and then parses the environment so main stays lean.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects values env.Parse accepts but the server cannot run with.
func (s Server) Validate() error {
	switch s.Seed.Mode {
	case SeedModeLenient, SeedModeStrict:
	default:
		return fmt.Errorf("SEED_MODE must be %q or %q, got %q", SeedModeLenient, SeedModeStrict, s.Seed.Mode)
	}
	if s.Seed.Timeout < 0 {
		return fmt.Errorf("SEED_TIMEOUT must not be negative")
	}
	if s.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if s.Auth.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required")
	}
	if s.Limits.LoginRequests < 0 || s.Limits.LoginWindow < 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must not be negative")
	}
	switch s.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", s.LogFormat)
	}
	return nil
}
