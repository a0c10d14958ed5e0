package jwtauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ggoodman/jwt-authn/jwks"
)

// Resolver failure classes. Callers map these onto their outward taxonomy.
var (
	// ErrMissingProvider indicates the asymmetric path has no key provider.
	ErrMissingProvider = errors.New("jwtauth: missing key provider")
	// ErrMissingKeyID indicates the token header carried no kid.
	ErrMissingKeyID = errors.New("jwtauth: no kid in token header")
	// ErrKeysUnavailable wraps a provider lookup failure.
	ErrKeysUnavailable = errors.New("jwtauth: keys unavailable")
	// ErrPublicKeyUnavailable wraps a key material decode failure.
	ErrPublicKeyUnavailable = errors.New("jwtauth: public key unavailable")
	// ErrResolver wraps any other provider failure.
	ErrResolver = errors.New("jwtauth: key resolution failed")
)

// KeyResolver returns the verification key for a token header.
type KeyResolver interface {
	// Ready reports configuration faults that fail every resolution,
	// before any token byte is inspected.
	Ready() error
	Resolve(ctx context.Context, h Header) (any, error)
}

// SecretResolver resolves every token to a fixed HMAC secret.
type SecretResolver struct {
	secret []byte
}

// NewSecretResolver copies secret so later caller mutation has no effect.
func NewSecretResolver(secret []byte) (*SecretResolver, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret is required")
	}
	return &SecretResolver{secret: append([]byte(nil), secret...)}, nil
}

func (r *SecretResolver) Ready() error { return nil }

func (r *SecretResolver) Resolve(context.Context, Header) (any, error) {
	return r.secret, nil
}

// JWKResolver resolves public keys by kid through a jwks.Provider. A nil
// provider is a legal value that fails every resolution.
type JWKResolver struct {
	provider jwks.Provider
}

func NewJWKResolver(p jwks.Provider) *JWKResolver {
	return &JWKResolver{provider: p}
}

func (r *JWKResolver) Ready() error {
	if r.provider == nil {
		return ErrMissingProvider
	}
	return nil
}

func (r *JWKResolver) Resolve(ctx context.Context, h Header) (any, error) {
	if err := r.Ready(); err != nil {
		return nil, err
	}
	if !h.HasKID {
		return nil, ErrMissingKeyID
	}
	jwk, err := r.provider.Get(ctx, h.KeyID)
	if err != nil {
		switch {
		case errors.Is(err, jwks.ErrSigningKeyNotFound):
			return nil, fmt.Errorf("%w: %w", ErrKeysUnavailable, err)
		case errors.Is(err, jwks.ErrInvalidPublicKey):
			return nil, fmt.Errorf("%w: %w", ErrPublicKeyUnavailable, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrResolver, err)
		}
	}
	pub, err := jwk.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublicKeyUnavailable, err)
	}
	return pub, nil
}

var (
	_ KeyResolver = (*SecretResolver)(nil)
	_ KeyResolver = (*JWKResolver)(nil)
)
