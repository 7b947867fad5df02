// Package proto declares the wire contract of the auth service (auth.proto):
// request and response messages, the gRPC service descriptor and a typed
// client. Messages are encoded in the protobuf binary format by the codec
// registered in this package, so any protobuf gRPC client can call the
// service.
package proto

// RegisterRequest creates an account.
type RegisterRequest struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string
	Password string
}

// RefreshTokenRequest exchanges a refresh token for a new token pair.
type RefreshTokenRequest struct {
	RefreshToken string
}

// RevokeTokenRequest ends the session of a refresh token.
type RevokeTokenRequest struct {
	RefreshToken string
}

// RevokeTokenResponse is empty.
type RevokeTokenResponse struct{}

// ValidateTokenRequest checks an access token. When AccessToken is empty the
// server reads the "authorization" metadata instead.
type ValidateTokenRequest struct {
	AccessToken string
}

// ValidateTokenResponse carries the verified claims.
type ValidateTokenResponse struct {
	UserID    string
	Email     string
	Roles     []string
	ExpiresAt int64
}

// AuthResponse is returned by Register, Login and RefreshToken.
type AuthResponse struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
	FirstName    string
	LastName     string
	Roles        []string
	ExpiresIn    int64
}
