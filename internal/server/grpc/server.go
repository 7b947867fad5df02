// Package grpc is the gRPC transport of the auth service. It translates wire
// messages to service calls and service error kinds to gRPC status codes.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/shortlink-auth/internal/logging"
	pb "github.com/dmitrijs2005/shortlink-auth/internal/proto"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/auth"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/services"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// AuthService is the business API the transport delegates to.
type AuthService interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Revoke(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, accessToken string) (*auth.AccessClaims, error)
}

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address string
	auth    AuthService
	logger  logging.Logger
}

func NewGRPCServer(address string, l logging.Logger, svc AuthService) *GRPCServer {
	return &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		auth:    svc,
	}
}

// newServer builds the grpc.Server with tracing and interceptors and
// registers the auth service and server reflection on it.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor),
	)
	pb.RegisterAuthServiceServer(srv, s)
	reflection.Register(srv)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// ErrServerStopped means ctx was cancelled before Serve started
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	<-stopped
	return nil
}
