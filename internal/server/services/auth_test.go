package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/shortlink-auth/internal/dbtest"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se), "expected *services.Error, got %T: %v", err, err)
	require.Equal(t, kind, se.Kind, "unexpected kind for %v", err)
}

func TestRegisterLoginScenario(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	reg, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)
	assert.NotEmpty(t, reg.UserID)
	assert.Equal(t, "ann@x.com", reg.Email)
	assert.Equal(t, "Ann", reg.FirstName)
	assert.Equal(t, "Lee", reg.LastName)
	assert.Equal(t, []string{"User"}, reg.Roles)
	assert.Equal(t, int64(1800), reg.ExpiresIn)

	claims, err := s.svc.ValidateToken(ctx, reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, claims.UserID())
	assert.Equal(t, []string{"User"}, claims.Roles)

	login, err := s.svc.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "P@ssw0rd1"})
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, login.UserID)
	assert.NotEqual(t, reg.RefreshToken, login.RefreshToken)

	// login superseded the registration token
	active, err := s.ledger.FindActive(ctx, reg.UserID)
	require.NoError(t, err)
	assert.Equal(t, login.RefreshToken, active.Value)

	_, err = s.svc.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "wrongpass"})
	requireKind(t, err, KindUnauthenticated)

	dup := annRequest()
	dup.FirstName = "Ann2"
	_, err = s.svc.Register(ctx, dup)
	requireKind(t, err, KindAlreadyExists)

	assert.Equal(t, []string{events.TopicUserRegistered, events.TopicUserLoggedIn}, s.publisher.topics())
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)

	_, unknownErr := s.svc.Login(ctx, LoginRequest{Email: "nobody@x.com", Password: "P@ssw0rd1"})
	_, wrongErr := s.svc.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "P@ssw0rd2"})

	requireKind(t, unknownErr, KindUnauthenticated)
	requireKind(t, wrongErr, KindUnauthenticated)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	req := annRequest()
	req.Email = "  Ann@X.com "
	reg, err := s.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", reg.Email)

	_, err = s.svc.Login(ctx, LoginRequest{Email: "ANN@x.COM", Password: "P@ssw0rd1"})
	require.NoError(t, err)
}

func TestRefreshScenario(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)
	login, err := s.svc.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "P@ssw0rd1"})
	require.NoError(t, err)

	refreshed, err := s.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)
	assert.Equal(t, login.UserID, refreshed.UserID)

	_, err = s.svc.Refresh(ctx, login.RefreshToken)
	requireKind(t, err, KindUnauthenticated)

	// reuse detection is on by default only as a report
	assert.Contains(t, s.publisher.topics(), events.TopicRefreshTokenReused)
	active, err := s.ledger.FindActive(ctx, login.UserID)
	require.NoError(t, err)
	assert.Equal(t, refreshed.RefreshToken, active.Value)
}

func TestRefresh_PicksUpRoleChanges(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	reg, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)
	require.NoError(t, s.users.AddRole(ctx, reg.UserID, "Admin"))

	refreshed, err := s.svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"User", "Admin"}, refreshed.Roles)

	claims, err := s.tokens.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"User", "Admin"}, claims.Roles)
}

func TestRefresh_ReuseRevokesChainWhenEnabled(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, WithRevokeChainOnReuse(true))

	reg, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)
	refreshed, err := s.svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)

	_, err = s.svc.Refresh(ctx, reg.RefreshToken)
	requireKind(t, err, KindUnauthenticated)

	// the live descendant was revoked too
	_, err = s.svc.Refresh(ctx, refreshed.RefreshToken)
	requireKind(t, err, KindUnauthenticated)

	var reused *events.RefreshTokenReused
	for _, e := range s.publisher.events {
		if p, ok := e.payload.(events.RefreshTokenReused); ok && reused == nil {
			reused = &p
		}
	}
	require.NotNil(t, reused)
	assert.Equal(t, reg.UserID, reused.UserID)
	assert.Equal(t, int64(1), reused.RevokedCount)
}

func TestRevokeScenario(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	reg, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)

	require.NoError(t, s.svc.Revoke(ctx, reg.RefreshToken))

	err = s.svc.Revoke(ctx, reg.RefreshToken)
	requireKind(t, err, KindFailedPrecondition)

	_, err = s.svc.Refresh(ctx, reg.RefreshToken)
	requireKind(t, err, KindUnauthenticated)

	err = s.svc.Revoke(ctx, "never-issued")
	requireKind(t, err, KindInvalidArgument)

	err = s.svc.Revoke(ctx, "")
	requireKind(t, err, KindInvalidArgument)

	assert.Equal(t, []string{events.TopicUserRegistered, events.TopicTokenRevoked}, s.publisher.topics())
}

func TestRefresh_ConcurrentExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	reg, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)

	const n = 10
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		successes atomic.Int32
		failures  atomic.Int32
		winner    atomic.Value
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := s.svc.Refresh(ctx, reg.RefreshToken)
			if err != nil {
				if KindOf(err) == KindUnauthenticated {
					failures.Add(1)
				}
				return
			}
			successes.Add(1)
			winner.Store(res.RefreshToken)
		}()
	}

	close(start)
	wg.Wait()

	require.Equal(t, int32(1), successes.Load())
	require.Equal(t, int32(n-1), failures.Load())

	active, err := s.ledger.FindActive(ctx, reg.UserID)
	require.NoError(t, err)
	assert.Equal(t, winner.Load(), active.Value)
}

func TestLogin_ConcurrentKeepsSingleActive(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	reg, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.svc.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "P@ssw0rd1"})
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, dbtest.CountActive(t, s.db, reg.UserID, time.Now()))
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	s.publisher.err = errors.New("broker down")

	reg, err := s.svc.Register(ctx, annRequest())
	require.NoError(t, err)
	_, err = s.svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
}

func TestPublishOutlivesRequestCancellation(t *testing.T) {
	s := newStack(t, WithPublishTimeout(time.Second))

	var seenErr atomic.Value
	s.svc.publisher = publisherFunc(func(ctx context.Context, topic string, payload any) error {
		seenErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.svc.publish(ctx, events.TopicTokenRevoked, events.TokenRevoked{UserID: "u1"})

	assert.Equal(t, true, seenErr.Load())
}

func TestValidateToken_Invalid(t *testing.T) {
	s := newStack(t)

	_, err := s.svc.ValidateToken(context.Background(), "garbage")
	requireKind(t, err, KindUnauthenticated)
}

func TestRegister_ValidationHappensBeforeStorage(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	req := annRequest()
	req.Password = "short"
	req.Email = "not-an-email"
	_, err := s.svc.Register(ctx, req)
	requireKind(t, err, KindInvalidArgument)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Fields, "password")
	assert.Contains(t, se.Fields, "email")

	_, err = s.users.GetUserByEmail(ctx, "not-an-email")
	require.Error(t, err)
	assert.Empty(t, s.publisher.topics())
}

type publisherFunc func(ctx context.Context, topic string, payload any) error

func (f publisherFunc) Publish(ctx context.Context, topic string, payload any) error {
	return f(ctx, topic, payload)
}
