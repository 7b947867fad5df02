package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/shortlink-auth/internal/common"
	pb "github.com/dmitrijs2005/shortlink-auth/internal/proto"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/services"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.AuthResponse, error) {
	res, err := s.auth.Register(ctx, services.RegisterRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toAuthResponse(res), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.AuthResponse, error) {
	res, err := s.auth.Login(ctx, services.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, toStatus(err)
	}
	return toAuthResponse(res), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.AuthResponse, error) {
	res, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return toAuthResponse(res), nil
}

func (s *GRPCServer) RevokeToken(ctx context.Context, req *pb.RevokeTokenRequest) (*pb.RevokeTokenResponse, error) {
	if err := s.auth.Revoke(ctx, req.RefreshToken); err != nil {
		return nil, toStatus(err)
	}
	return &pb.RevokeTokenResponse{}, nil
}

func (s *GRPCServer) ValidateToken(ctx context.Context, req *pb.ValidateTokenRequest) (*pb.ValidateTokenResponse, error) {
	token := req.AccessToken
	if token == "" {
		token = accessTokenFromMetadata(ctx)
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := s.auth.ValidateToken(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &pb.ValidateTokenResponse{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Roles:  claims.Roles,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return resp, nil
}

// accessTokenFromMetadata reads "authorization: Bearer <token>" (the scheme
// is optional).
func accessTokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	v := strings.TrimSpace(values[0])
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		v = strings.TrimSpace(v[7:])
	}
	return v
}

func toAuthResponse(r *services.AuthResult) *pb.AuthResponse {
	return &pb.AuthResponse{
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

// toStatus maps service error kinds to gRPC codes. Internal errors carry a
// generic message only.
func toStatus(err error) error {
	var se *services.Error
	if !errors.As(err, &se) {
		return status.Error(codes.Internal, "internal error")
	}

	switch se.Kind {
	case services.KindInvalidArgument:
		st := status.New(codes.InvalidArgument, se.Message)
		if len(se.Fields) == 0 {
			return st.Err()
		}
		br := &errdetails.BadRequest{}
		for field, msg := range se.Fields {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       field,
				Description: msg,
			})
		}
		if withDetails, derr := st.WithDetails(br); derr == nil {
			return withDetails.Err()
		}
		return st.Err()
	case services.KindAlreadyExists:
		return status.Error(codes.AlreadyExists, se.Message)
	case services.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, se.Message)
	case services.KindFailedPrecondition:
		return status.Error(codes.FailedPrecondition, se.Message)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
