package auth

import (
	"context"
	"errors"
)

// Kind classifies an authentication failure.
type Kind int

const (
	// KindCredential means the presented token is not trustworthy. Callers
	// should treat it as a client error.
	KindCredential Kind = iota + 1
	// KindConfiguration means the authenticator is not configured to verify
	// tokens at all.
	KindConfiguration
	// KindInfrastructure means the trust infrastructure (key provider) could
	// not be consulted.
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindConfiguration:
		return "configuration"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Outward messages. Credential messages are intentionally vague.
const (
	MsgInvalidToken         = "Not a valid token"
	MsgNoKeyID              = "No kid found in jwt"
	MsgMissingProvider      = "Missing jwk provider"
	MsgKeysUnavailable      = "Could not retrieve jwks from issuer"
	MsgPublicKeyUnavailable = "Could not retrieve public key from issuer"
	MsgCannotAuthenticate   = "Cannot authenticate with jwt"
)

// ErrBadCredentials matches (via errors.Is) every *Error of KindCredential.
var ErrBadCredentials = errors.New("bad credentials")

// ErrAuthenticationService matches every *Error of KindConfiguration or
// KindInfrastructure.
var ErrAuthenticationService = errors.New("authentication service failure")

// Error is a classified authentication failure. Error() returns only the
// display message; the diagnostic cause is reachable through Unwrap and must
// not be shown to the client.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadCredentials:
		return e.Kind == KindCredential
	case ErrAuthenticationService:
		return e.Kind == KindConfiguration || e.Kind == KindInfrastructure
	}
	return false
}

// Provider authenticates the credential representations it supports.
// Implementations must be safe for concurrent use.
type Provider interface {
	Supports(c Credential) bool
	Authenticate(ctx context.Context, c Credential) (*AuthenticatedToken, error)
}
