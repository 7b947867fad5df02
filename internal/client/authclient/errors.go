package authclient

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnavailable     = errors.New("server unavailable")
	ErrAlreadyExists   = errors.New("already exists")
	ErrAlreadyRevoked  = errors.New("already revoked")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoSession       = errors.New("not logged in")
)

// mapError converts a gRPC status into one of the package errors, keeping
// the server message and any field violations.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrAlreadyRevoked, st.Message())
	case codes.InvalidArgument:
		if v := fieldViolations(st); v != "" {
			return fmt.Errorf("%w: %s (%s)", ErrInvalidArgument, st.Message(), v)
		}
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func fieldViolations(st *status.Status) string {
	var parts []string
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, v := range br.GetFieldViolations() {
			parts = append(parts, v.GetField()+": "+v.GetDescription())
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
