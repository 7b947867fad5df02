package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests that need an authenticated caller.
const AccessTokenHeaderName = "authorization"

// DefaultRole is assigned to every newly registered user.
const DefaultRole = "User"
