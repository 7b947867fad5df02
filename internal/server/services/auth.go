// Package services contains the server-side business logic. AuthService
// composes the user directory, password hashing, token issuance, the
// refresh-token ledger and the event publisher into the Register, Login,
// Refresh, Revoke and ValidateToken operations.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/shortlink-auth/internal/common"
	"github.com/dmitrijs2005/shortlink-auth/internal/logging"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/auth"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/events"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/models"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/repositories/refreshtokens"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/shortlink-auth/internal/server/services"

const defaultPublishTimeout = 2 * time.Second

// UserDirectory is the account store the service depends on.
type UserDirectory interface {
	CreateUser(ctx context.Context, u models.NewUser) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TokenIssuer mints and checks access tokens.
type TokenIssuer interface {
	IssueAccessToken(userID, email string, roles []string) (string, time.Time, error)
	ValidateAccessToken(token string) (*auth.AccessClaims, error)
	ExpiresIn() int64
}

// CredentialVerifier hashes and verifies passwords.
type CredentialVerifier interface {
	NewSalt() (string, error)
	Hash(password, salt string) (string, error)
	Verify(password, salt, expected string) bool
}

// AuthResult is returned by Register, Login and Refresh.
type AuthResult struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	UserID               string
	Email                string
	FirstName            string
	LastName             string
	Roles                []string
	ExpiresIn            int64
}

// AuthService implements the credential and token lifecycle operations.
// It holds no per-request state and is safe for concurrent use.
type AuthService struct {
	users     UserDirectory
	ledger    refreshtokens.Ledger
	tokens    TokenIssuer
	passwords CredentialVerifier
	publisher events.Publisher
	log       logging.Logger
	tracer    trace.Tracer
	now       func() time.Time

	revokeChainOnReuse bool
	publishTimeout     time.Duration

	// used to spend the same time on unknown emails as on wrong passwords
	dummySalt, dummyHash string
}

// Option customizes an AuthService.
type Option func(*AuthService)

// WithRevokeChainOnReuse revokes the user's live refresh token when a
// rotated one is replayed.
func WithRevokeChainOnReuse(enabled bool) Option {
	return func(s *AuthService) { s.revokeChainOnReuse = enabled }
}

// WithPublishTimeout bounds each event publish.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *AuthService) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *AuthService) { s.tracer = t }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService wires the service. It fails only if the password hasher
// cannot produce the timing-equalization digest.
func NewAuthService(
	users UserDirectory,
	ledger refreshtokens.Ledger,
	tokens TokenIssuer,
	passwords CredentialVerifier,
	publisher events.Publisher,
	log logging.Logger,
	opts ...Option,
) (*AuthService, error) {
	s := &AuthService{
		users:          users,
		ledger:         ledger,
		tokens:         tokens,
		passwords:      passwords,
		publisher:      publisher,
		log:            log.With("module", "auth_service"),
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
		publishTimeout: defaultPublishTimeout,
	}
	for _, o := range opts {
		o(s)
	}

	salt, err := passwords.NewSalt()
	if err != nil {
		return nil, err
	}
	hash, err := passwords.Hash("timing-equalization", salt)
	if err != nil {
		return nil, err
	}
	s.dummySalt, s.dummyHash = salt, hash
	return s, nil
}

// Register creates an account and starts its first session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer func() { endSpan(span, err) }()

	req.normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	salt, err := s.passwords.NewSalt()
	if err != nil {
		return nil, s.internal(ctx, "generate salt", err)
	}
	hash, err := s.passwords.Hash(req.Password, salt)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	user, err := s.users.CreateUser(ctx, models.NewUser{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		PasswordSalt: salt,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, alreadyExists("email is already registered")
		}
		return nil, s.internal(ctx, "create user", err)
	}

	res, err = s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	s.publish(ctx, events.TopicUserRegistered, events.UserRegistered{
		UserID:     user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		OccurredAt: s.now(),
	})
	return res, nil
}

// Login checks credentials and starts a new session, superseding any
// previous refresh token of the user.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.passwords.Verify(req.Password, s.dummySalt, s.dummyHash)
			return nil, unauthenticated("invalid email or password", nil)
		}
		return nil, s.internal(ctx, "get user", err)
	}

	if !s.passwords.Verify(req.Password, user.PasswordSalt, user.PasswordHash) {
		return nil, unauthenticated("invalid email or password", nil)
	}

	res, err = s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	s.publish(ctx, events.TopicUserLoggedIn, events.UserLoggedIn{
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now(),
	})
	return res, nil
}

// Refresh rotates refreshToken and issues a new access token carrying the
// user's current roles.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Refresh")
	defer func() { endSpan(span, err) }()

	if refreshToken == "" {
		return nil, unauthenticated("invalid refresh token", nil)
	}

	rotated, err := s.ledger.Rotate(ctx, refreshToken)
	if err != nil {
		var reuse *refreshtokens.ReuseError
		if errors.As(err, &reuse) {
			s.handleReuse(ctx, reuse.UserID)
			return nil, unauthenticated("invalid refresh token", err)
		}
		if errors.Is(err, common.ErrInvalidToken) {
			return nil, unauthenticated("invalid refresh token", err)
		}
		return nil, s.internal(ctx, "rotate refresh token", err)
	}

	// past this point the rotated token is committed; any failure revokes it
	// so that no live token is left undelivered
	user, err := s.users.GetUserByID(ctx, rotated.UserID)
	if err != nil {
		s.discard(ctx, rotated)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, unauthenticated("invalid refresh token", err)
		}
		return nil, s.internal(ctx, "get user", err)
	}

	res, err = s.result(ctx, user, rotated.Value)
	if err != nil {
		s.discard(ctx, rotated)
		return nil, err
	}

	s.log.Debug(ctx, "refresh token rotated", "user_id", user.ID)
	s.publish(ctx, events.TopicTokenRefreshed, events.TokenRefreshed{
		UserID:     user.ID,
		OccurredAt: s.now(),
	})
	return res, nil
}

// Revoke ends the session identified by refreshToken (logout).
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) (err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Revoke")
	defer func() { endSpan(span, err) }()

	if refreshToken == "" {
		return invalidArgument("validation failed", map[string]string{"refreshToken": "cannot be blank"})
	}

	revoked, err := s.ledger.Revoke(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return invalidArgument("unknown refresh token", nil)
		case errors.Is(err, common.ErrAlreadyRevoked):
			return failedPrecondition("refresh token already revoked", err)
		default:
			return s.internal(ctx, "revoke refresh token", err)
		}
	}

	s.log.Info(ctx, "refresh token revoked", "user_id", revoked.UserID)
	s.publish(ctx, events.TopicTokenRevoked, events.TokenRevoked{
		UserID:     revoked.UserID,
		OccurredAt: s.now(),
	})
	return nil
}

// ValidateToken checks an access token and returns its claims.
func (s *AuthService) ValidateToken(ctx context.Context, accessToken string) (claims *auth.AccessClaims, err error) {
	_, span := s.tracer.Start(ctx, "AuthService.ValidateToken")
	defer func() { endSpan(span, err) }()

	claims, err = s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, unauthenticated("invalid access token", err)
	}
	return claims, nil
}

// discard revokes a rotated token that cannot be handed out. It runs even
// when ctx is already cancelled.
func (s *AuthService) discard(ctx context.Context, rt *models.RefreshToken) {
	if _, err := s.ledger.Revoke(context.WithoutCancel(ctx), rt.Value); err != nil {
		s.log.Warn(ctx, "revoke undelivered refresh token failed", "user_id", rt.UserID, "error", err)
	}
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	rt, err := s.ledger.IssueFor(ctx, user.ID)
	if err != nil {
		return nil, s.internal(ctx, "issue refresh token", err)
	}
	return s.result(ctx, user, rt.Value)
}

func (s *AuthService) result(ctx context.Context, user *models.User, refreshToken string) (*AuthResult, error) {
	access, expiresAt, err := s.tokens.IssueAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, s.internal(ctx, "issue access token", err)
	}
	return &AuthResult{
		AccessToken:          access,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         refreshToken,
		UserID:               user.ID,
		Email:                user.Email,
		FirstName:            user.FirstName,
		LastName:             user.LastName,
		Roles:                user.Roles,
		ExpiresIn:            s.tokens.ExpiresIn(),
	}, nil
}

func (s *AuthService) handleReuse(ctx context.Context, userID string) {
	var revoked int64
	if s.revokeChainOnReuse {
		n, err := s.ledger.RevokeAllFor(ctx, userID)
		if err != nil {
			s.log.Error(ctx, "revoke chain after reuse failed", "user_id", userID, "error", err)
		}
		revoked = n
	}

	s.log.Warn(ctx, "rotated refresh token presented again", "user_id", userID, "revoked", revoked)
	s.publish(ctx, events.TopicRefreshTokenReused, events.RefreshTokenReused{
		UserID:       userID,
		RevokedCount: revoked,
		OccurredAt:   s.now(),
	})
}

// publish never fails the calling operation. It outlives request
// cancellation but not publishTimeout.
func (s *AuthService) publish(ctx context.Context, topic string, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.log.Warn(ctx, "publish event failed", "topic", topic, "error", err)
	}
}

func (s *AuthService) internal(ctx context.Context, op string, err error) *Error {
	s.log.Error(ctx, op+" failed", "error", err)
	return internal(err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, KindOf(err).String())
	}
	span.End()
}
