// Package authclient is a typed gRPC client for the auth service. It keeps
// the tokens of the last successful login so that callers can refresh,
// validate and revoke without handling token strings themselves.
package authclient

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/shortlink-auth/internal/common"
	pb "github.com/dmitrijs2005/shortlink-auth/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Session is the state returned by Register, Login and Refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
	FirstName    string
	LastName     string
	Roles        []string
	ExpiresIn    int64
}

// Identity is what the server reports for a valid access token.
type Identity struct {
	UserID    string
	Email     string
	Roles     []string
	ExpiresAt int64
}

// RegisterParams carries the registration form.
type RegisterParams struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

type Client struct {
	conn *grpc.ClientConn
	api  pb.AuthServiceClient

	mu      sync.Mutex
	session *Session
}

// New connects to endpoint without transport security. Extra dial options
// are appended (tests use them to dial in-memory listeners).
func New(endpoint string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpoint, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.api = pb.NewAuthServiceClient(conn)
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Session returns a copy of the current session or nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	s.Roles = append([]string(nil), c.session.Roles...)
	return &s
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, "Bearer "+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the session access token to ValidateToken
// calls that carry no explicit token. A rejected token is refreshed once and
// the call retried.
func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method != pb.AuthService_ValidateToken_FullMethodName {
		return invoker(ctx, method, req, reply, cc, opts...)
	}
	if r, ok := req.(*pb.ValidateTokenRequest); ok && r.AccessToken != "" {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	s := c.Session()
	if s == nil {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, s.AccessToken), method, req, reply, cc, opts...)
	if status.Code(err) != codes.Unauthenticated || s.RefreshToken == "" {
		return err
	}

	refreshed, rerr := c.refresh(ctx, s.RefreshToken)
	if rerr != nil {
		return err
	}
	return invoker(withAccessToken(ctx, refreshed.AccessToken), method, req, reply, cc, opts...)
}

func fromResponse(r *pb.AuthResponse) *Session {
	return &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		UserID:       r.UserID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Roles:        r.Roles,
		ExpiresIn:    r.ExpiresIn,
	}
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, p RegisterParams) (*Session, error) {
	resp, err := c.api.Register(ctx, &pb.RegisterRequest{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		Password:    p.Password,
	})
	if err != nil {
		return nil, mapError(err)
	}
	s := fromResponse(resp)
	c.setSession(s)
	return s, nil
}

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.api.Login(ctx, &pb.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	s := fromResponse(resp)
	c.setSession(s)
	return s, nil
}

// Refresh rotates the session refresh token.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	s := c.Session()
	if s == nil {
		return nil, ErrNoSession
	}
	return c.refresh(ctx, s.RefreshToken)
}

// RefreshWith rotates an explicit refresh token and adopts the result as the
// session.
func (c *Client) RefreshWith(ctx context.Context, refreshToken string) (*Session, error) {
	return c.refresh(ctx, refreshToken)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	resp, err := c.api.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, mapError(err)
	}
	s := fromResponse(resp)
	c.setSession(s)
	return s, nil
}

// Logout revokes the session refresh token and forgets the session.
func (c *Client) Logout(ctx context.Context) error {
	s := c.Session()
	if s == nil {
		return ErrNoSession
	}
	if err := c.RevokeToken(ctx, s.RefreshToken); err != nil {
		return err
	}
	c.setSession(nil)
	return nil
}

// RevokeToken revokes an explicit refresh token.
func (c *Client) RevokeToken(ctx context.Context, refreshToken string) error {
	_, err := c.api.RevokeToken(ctx, &pb.RevokeTokenRequest{RefreshToken: refreshToken})
	return mapError(err)
}

// Validate checks the session access token.
func (c *Client) Validate(ctx context.Context) (*Identity, error) {
	if c.Session() == nil {
		return nil, ErrNoSession
	}
	return c.validate(ctx, "")
}

// ValidateWith checks an explicit access token.
func (c *Client) ValidateWith(ctx context.Context, accessToken string) (*Identity, error) {
	return c.validate(ctx, accessToken)
}

func (c *Client) validate(ctx context.Context, accessToken string) (*Identity, error) {
	resp, err := c.api.ValidateToken(ctx, &pb.ValidateTokenRequest{AccessToken: accessToken})
	if err != nil {
		return nil, mapError(err)
	}
	return &Identity{UserID: resp.UserID, Email: resp.Email, Roles: resp.Roles, ExpiresAt: resp.ExpiresAt}, nil
}
