package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/shortlink-auth/internal/dbtest"
	"github.com/dmitrijs2005/shortlink-auth/internal/dbx"
	"github.com/dmitrijs2005/shortlink-auth/internal/logging"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/auth"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/models"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/repositories/users"
	"github.com/stretchr/testify/mock"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type published struct {
	topic   string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, payload: payload})
	return p.err
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

type stack struct {
	db        *sql.DB
	svc       *AuthService
	users     *users.Store
	ledger    *refreshtokens.Store
	tokens    *auth.TokenIssuer
	publisher *recordingPublisher
}

func newStack(t *testing.T, opts ...Option) *stack {
	t.Helper()

	db := dbtest.NewSQLite(t)
	tokens := auth.NewTokenIssuer(testSecret, "shortlink-auth", "shortlink", 30*time.Minute)
	dir := users.NewStore(db, dbx.SQLite{})
	ledger := refreshtokens.NewStore(db, dbx.SQLite{}, tokens.IssueRefreshTokenValue)
	pub := &recordingPublisher{}

	svc, err := NewAuthService(dir, ledger, tokens, auth.NewPasswordHasher(1000), pub, logging.Nop{}, opts...)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return &stack{db: db, svc: svc, users: dir, ledger: ledger, tokens: tokens, publisher: pub}
}

func annRequest() RegisterRequest {
	return RegisterRequest{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ann@x.com",
		Password:  "P@ssw0rd1",
	}
}

// --- testify mocks for failure paths ---

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) CreateUser(ctx context.Context, u models.NewUser) (*models.User, error) {
	args := m.Called(ctx, u)
	if v := args.Get(0); v != nil {
		return v.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if v := args.Get(0); v != nil {
		return v.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) IssueFor(ctx context.Context, userID string) (*models.RefreshToken, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*models.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) Rotate(ctx context.Context, presented string) (*models.RefreshToken, error) {
	args := m.Called(ctx, presented)
	if v := args.Get(0); v != nil {
		return v.(*models.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) Revoke(ctx context.Context, presented string) (*models.RefreshToken, error) {
	args := m.Called(ctx, presented)
	if v := args.Get(0); v != nil {
		return v.(*models.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) FindActive(ctx context.Context, userID string) (*models.RefreshToken, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*models.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) RevokeAllFor(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func newMockedService(t *testing.T, opts ...Option) (*AuthService, *mockDirectory, *mockLedger, *recordingPublisher) {
	t.Helper()

	dir := &mockDirectory{}
	ledger := &mockLedger{}
	pub := &recordingPublisher{}
	tokens := auth.NewTokenIssuer(testSecret, "shortlink-auth", "shortlink", 30*time.Minute)

	svc, err := NewAuthService(dir, ledger, tokens, auth.NewPasswordHasher(1000), pub, logging.Nop{}, opts...)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	t.Cleanup(func() {
		dir.AssertExpectations(t)
		ledger.AssertExpectations(t)
	})
	return svc, dir, ledger, pub
}
