package jwks

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Discovered is a remote Provider whose JWKS location was learned from the
// issuer's OpenID Connect discovery document.
type Discovered struct {
	*SetProvider
	issuer  string
	jwksURI string
}

// NewFromDiscovery fetches /.well-known/openid-configuration for issuer and
// returns a Provider over the advertised jwks_uri.
func NewFromDiscovery(ctx context.Context, issuer string) (*Discovered, error) {
	if issuer == "" {
		return nil, errors.New("issuer is required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		Issuer  string `json:"issuer"`
		JwksURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return nil, errors.New("discovery incomplete: missing jwks_uri")
	}
	sp, err := NewRemote(ctx, meta.JwksURI)
	if err != nil {
		return nil, err
	}
	return &Discovered{SetProvider: sp, issuer: meta.Issuer, jwksURI: meta.JwksURI}, nil
}

// Issuer returns the issuer identifier advertised by discovery.
func (d *Discovered) Issuer() string { return d.issuer }

// JWKSURI returns the key set location advertised by discovery.
func (d *Discovered) JWKSURI() string { return d.jwksURI }
