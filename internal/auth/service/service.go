// Package service signs reviewers in and out and resolves session tokens into principals.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"abportal/internal/auth/device"
	"abportal/internal/auth/models"
	"abportal/internal/auth/secrets"
	jwttoken "abportal/internal/jwt_token"
	"abportal/internal/platform/metrics"
	id "abportal/pkg/domain"
	dErrors "abportal/pkg/domain-errors"
	"abportal/pkg/platform/sentinel"
	"abportal/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,TokenIssuer,TokenRevocationList

const (
	DefaultSessionTTL = 8 * time.Hour
	TokenTypeBearer   = "Bearer"

	msgInvalidCredentials = "Invalid email or password"

	// unknownUserPassword is hashed once so unknown emails pay for a bcrypt compare too.
	unknownUserPassword = "abportal-unknown-reviewer"
)

type UserStore interface {
	Save(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(in jwttoken.SessionInput, expiresIn time.Duration) (string, *jwttoken.Claims, error)
	ValidateToken(token string) (*jwttoken.Claims, error)
}

type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionHook runs after a session has ended.
type SessionHook func(ctx context.Context, session id.SessionID)

type Service struct {
	users      UserStore
	tokens     TokenIssuer
	trl        TokenRevocationList
	sessionTTL time.Duration
	hashCost   int
	onLogout   []SessionHook
	logger     *slog.Logger
	metrics    *metrics.Metrics

	verify    func(password, hash string) error
	dummyOnce sync.Once
	dummy     string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithHashCost sets the bcrypt cost used by RegisterReviewer.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithLogoutHook registers fn to run after every logout.
func WithLogoutHook(fn SessionHook) Option {
	return func(s *Service) { s.onLogout = append(s.onLogout, fn) }
}

func New(users UserStore, tokens TokenIssuer, trl TokenRevocationList, opts ...Option) *Service {
	s := &Service{
		users:      users,
		tokens:     tokens,
		trl:        trl,
		sessionTTL: DefaultSessionTTL,
		logger:     slog.Default(),
		verify:     secrets.Verify,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dummyHash is a hash at the reviewer cost, used only to spend the same work on
// unknown emails as on wrong passwords.
func (s *Service) dummyHash() string {
	s.dummyOnce.Do(func() {
		var err error
		if s.hashCost > 0 {
			s.dummy, err = secrets.HashWithCost(unknownUserPassword, s.hashCost)
		} else {
			s.dummy, err = secrets.Hash(unknownUserPassword)
		}
		if err != nil {
			s.logger.Error("failed to prepare unknown-user hash", "error", err)
		}
	})
	return s.dummy
}

// RegisterReviewer stores a reviewer account with a bcrypt-hashed password.
func (s *Service) RegisterReviewer(ctx context.Context, email, name, password string) (*models.User, error) {
	var (
		hash string
		err  error
	)
	if s.hashCost > 0 {
		hash, err = secrets.HashWithCost(password, s.hashCost)
	} else {
		hash, err = secrets.Hash(password)
	}
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           id.NewUserID(),
		Email:        strings.TrimSpace(email),
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "reviewer already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save reviewer")
	}
	return user, nil
}

// Login checks the credentials and issues a session token.
// Every credential failure returns the same unauthorized error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	requestID := requestcontext.RequestID(ctx)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			_ = s.verify(password, s.dummyHash())
			return nil, s.loginFailed(ctx, "unknown email")
		}
		s.logger.ErrorContext(ctx, "failed to look up reviewer", "request_id", requestID, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up reviewer")
	}
	if err := s.verify(password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, s.loginFailed(ctx, "password mismatch")
		}
		s.logger.ErrorContext(ctx, "failed to verify password", "request_id", requestID, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	token, claims, err := s.tokens.GenerateAccessToken(jwttoken.SessionInput{
		UserID:    user.ID,
		SessionID: id.NewSessionID(),
		Name:      user.Name,
		Email:     user.Email,
		Device:    device.ParseUserAgent(requestcontext.UserAgent(ctx)),
	}, s.sessionTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to sign session token", "request_id", requestID, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session")
	}
	principal, err := principalFrom(claims)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session")
	}

	s.incrementLogin("success")
	s.logger.InfoContext(ctx, "reviewer signed in",
		"request_id", requestID,
		"user_id", principal.UserID.String(),
		"session_id", principal.SessionID.String(),
		"device", principal.Device,
	)
	return &models.LoginResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   s.sessionTTL,
		Principal:   principal,
	}, nil
}

// Logout revokes the principal's token for the rest of its lifetime and runs the logout hooks.
func (s *Service) Logout(ctx context.Context, p models.Principal) error {
	requestID := requestcontext.RequestID(ctx)
	if ttl := p.ExpiresAt.Sub(requestcontext.Now(ctx)); ttl > 0 {
		if err := s.trl.RevokeToken(ctx, p.TokenID, ttl); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke session token",
				"request_id", requestID,
				"session_id", p.SessionID.String(),
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not end session")
		}
	}
	for _, hook := range s.onLogout {
		hook(ctx, p.SessionID)
	}
	s.logger.InfoContext(ctx, "reviewer signed out",
		"request_id", requestID,
		"user_id", p.UserID.String(),
		"session_id", p.SessionID.String(),
	)
	return nil
}

// Resolve turns a bearer token into an auth state. A revocation backend failure leaves
// the state unresolved rather than guessing either way.
func (s *Service) Resolve(ctx context.Context, token string) models.AuthState {
	if token == "" {
		return models.Anonymous()
	}
	requestID := requestcontext.RequestID(ctx)

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		s.logger.DebugContext(ctx, "rejected session token", "request_id", requestID, "error", err)
		return models.Anonymous()
	}
	principal, err := principalFrom(claims)
	if err != nil {
		s.logger.DebugContext(ctx, "rejected session token", "request_id", requestID, "error", err)
		return models.Anonymous()
	}

	revoked, err := s.trl.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "token revocation check failed",
			"request_id", requestID,
			"session_id", principal.SessionID.String(),
			"error", err,
		)
		return models.Unresolved()
	}
	if revoked {
		return models.Anonymous()
	}
	return models.SignedIn(principal)
}

func (s *Service) loginFailed(ctx context.Context, reason string) error {
	s.incrementLogin("failure")
	s.logger.InfoContext(ctx, "reviewer sign-in refused",
		"request_id", requestcontext.RequestID(ctx),
		"reason", reason,
	)
	return dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
}

func (s *Service) incrementLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementLoginAttempt(outcome)
	}
}

func principalFrom(claims *jwttoken.Claims) (models.Principal, error) {
	userID, sessionID, err := claims.SessionIDs()
	if err != nil {
		return models.Principal{}, err
	}
	p := models.Principal{
		UserID:    userID,
		SessionID: sessionID,
		Name:      claims.Name,
		Email:     claims.Email,
		Device:    claims.Device,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}
