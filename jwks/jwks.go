// Package jwks provides the key lookup collaborator used by the asymmetric
// token authenticator: given a key identifier ("kid") taken from a token
// header, a Provider returns the matching JSON Web Key.
//
// Several Provider implementations are included: SetProvider over any
// jwkset.Storage, NewRemote for an auto-refreshing remote JWKS endpoint,
// NewFromDiscovery for OpenID Connect discovery, and FileProvider for a JWKS
// document on local disk. The rediscache sub-package decorates any Provider
// with a shared Redis cache.
package jwks

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// ErrSigningKeyNotFound is returned by a Provider when no key matches the
// requested kid, or when the key set itself could not be fetched or parsed.
var ErrSigningKeyNotFound = errors.New("jwks: signing key not found")

// ErrInvalidPublicKey is returned when key material cannot be decoded as a
// public verification key.
var ErrInvalidPublicKey = errors.New("jwks: invalid public key")

// Provider looks up key material by key identifier.
// Implementations must be safe for concurrent use.
type Provider interface {
	Get(ctx context.Context, kid string) (JWK, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, kid string) (JWK, error)

func (f ProviderFunc) Get(ctx context.Context, kid string) (JWK, error) { return f(ctx, kid) }

// JWK is a single JSON Web Key as returned by a Provider.
type JWK struct {
	key jose.JSONWebKey
}

// NewJWK wraps raw key material (typically a crypto public key) as a JWK.
func NewJWK(kid string, key any) JWK {
	return JWK{key: jose.JSONWebKey{Key: key, KeyID: kid, Use: "sig"}}
}

// FromJSONWebKey wraps an already decoded go-jose key.
func FromJSONWebKey(k jose.JSONWebKey) JWK { return JWK{key: k} }

// KeyID returns the "kid" of the key.
func (k JWK) KeyID() string { return k.key.KeyID }

// Algorithm returns the optional "alg" member of the key.
func (k JWK) Algorithm() string { return k.key.Algorithm }

// PublicKey decodes the key as a public verification key. Private keys are
// reduced to their public half. Symmetric or unknown material fails with
// ErrInvalidPublicKey.
func (k JWK) PublicKey() (crypto.PublicKey, error) {
	switch v := k.key.Key.(type) {
	case *rsa.PublicKey:
		if v == nil || v.N == nil {
			return nil, fmt.Errorf("%w: empty rsa key", ErrInvalidPublicKey)
		}
		return v, nil
	case *ecdsa.PublicKey:
		if v == nil || v.X == nil {
			return nil, fmt.Errorf("%w: empty ecdsa key", ErrInvalidPublicKey)
		}
		return v, nil
	case ed25519.PublicKey:
		if len(v) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: bad ed25519 key size %d", ErrInvalidPublicKey, len(v))
		}
		return v, nil
	case *rsa.PrivateKey:
		return &v.PublicKey, nil
	case *ecdsa.PrivateKey:
		return &v.PublicKey, nil
	case ed25519.PrivateKey:
		return v.Public(), nil
	case nil:
		return nil, fmt.Errorf("%w: no key material", ErrInvalidPublicKey)
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidPublicKey, v)
	}
}

// MarshalJSON encodes the public half of the key in JWK form.
func (k JWK) MarshalJSON() ([]byte, error) {
	pub, err := k.PublicKey()
	if err != nil {
		return nil, err
	}
	out := k.key
	out.Key = pub
	out.Certificates = nil
	return json.Marshal(out)
}

// UnmarshalJSON decodes a JWK document.
func (k *JWK) UnmarshalJSON(b []byte) error {
	var jk jose.JSONWebKey
	if err := json.Unmarshal(b, &jk); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	k.key = jk
	return nil
}
