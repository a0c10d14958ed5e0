package jwks

import (
	"context"
	"crypto"
	"errors"
	"fmt"

	"github.com/MicahParks/jwkset"
	keyfunc "github.com/MicahParks/keyfunc/v3"
	jose "github.com/go-jose/go-jose/v4"
)

// SetProvider serves keys from a jwkset.Storage. The storage may be a plain
// in-memory set or the auto-refreshing HTTP storage backing a keyfunc.Keyfunc.
type SetProvider struct {
	storage jwkset.Storage
}

var _ Provider = (*SetProvider)(nil)

// NewSetProvider returns a Provider reading from storage.
func NewSetProvider(storage jwkset.Storage) *SetProvider {
	return &SetProvider{storage: storage}
}

// NewMemoryProvider builds an in-memory key set from kid -> public key pairs.
func NewMemoryProvider(ctx context.Context, keys map[string]crypto.PublicKey) (*SetProvider, error) {
	storage := jwkset.NewMemoryStorage()
	for kid, key := range keys {
		jwk, err := jwkset.NewJWKFromKey(key, jwkset.JWKOptions{
			Metadata: jwkset.JWKMetadataOptions{KID: kid, USE: jwkset.UseSig},
		})
		if err != nil {
			return nil, fmt.Errorf("jwk %q: %w", kid, err)
		}
		if err := storage.KeyWrite(ctx, jwk); err != nil {
			return nil, fmt.Errorf("jwk %q: %w", kid, err)
		}
	}
	return NewSetProvider(storage), nil
}

// NewRemote returns a Provider backed by one or more remote JWKS URLs. Keys
// are refreshed in the background until ctx is cancelled, and unknown kids
// trigger a rate limited refresh.
func NewRemote(ctx context.Context, urls ...string) (*SetProvider, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one jwks url required")
	}
	kf, err := keyfunc.NewDefaultCtx(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return NewSetProvider(kf.Storage()), nil
}

// Get implements Provider.
func (p *SetProvider) Get(ctx context.Context, kid string) (JWK, error) {
	k, err := p.storage.KeyRead(ctx, kid)
	if err != nil {
		if errors.Is(err, jwkset.ErrKeyNotFound) {
			return JWK{}, fmt.Errorf("%w: kid %q", ErrSigningKeyNotFound, kid)
		}
		return JWK{}, fmt.Errorf("jwks read kid %q: %w", kid, err)
	}
	m := k.Marshal()
	return FromJSONWebKey(jose.JSONWebKey{
		Key:       k.Key(),
		KeyID:     m.KID,
		Algorithm: string(m.ALG),
		Use:       string(m.USE),
	}), nil
}
