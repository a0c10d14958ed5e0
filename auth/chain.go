package auth

import (
	"context"
	"errors"
)

// ErrNoProvider is returned by Chain.Authenticate when no member supports
// the credential.
var ErrNoProvider = errors.New("auth: no provider supports credential")

// Chain tries each member that supports a credential, in order. The first
// success wins. A credential rejection moves on to the next member; a
// service failure stops the chain. When every member rejects, the last
// rejection is returned.
type Chain []Provider

var _ Provider = Chain(nil)

func (c Chain) Supports(cred Credential) bool {
	for _, p := range c {
		if p.Supports(cred) {
			return true
		}
	}
	return false
}

func (c Chain) Authenticate(ctx context.Context, cred Credential) (*AuthenticatedToken, error) {
	last := ErrNoProvider
	for _, p := range c {
		if !p.Supports(cred) {
			continue
		}
		res, err := p.Authenticate(ctx, cred)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrBadCredentials) {
			return nil, err
		}
		last = err
	}
	return nil, last
}
