package auth

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is a bearer token in either its presented or its verified form.
type Credential interface {
	Token() string
	IsAuthenticated() bool
}

// PreAuthenticatedToken is a raw bearer token that has not been verified.
type PreAuthenticatedToken struct {
	token string
}

// UsingToken wraps a raw token string for authentication.
func UsingToken(tok string) *PreAuthenticatedToken {
	return &PreAuthenticatedToken{token: tok}
}

func (p *PreAuthenticatedToken) Token() string        { return p.token }
func (p *PreAuthenticatedToken) IsAuthenticated() bool { return false }

// AuthenticatedToken is the verified identity produced by a successful
// authentication. It is a different type from PreAuthenticatedToken so a
// presented credential cannot be mistaken for a proven one.
type AuthenticatedToken struct {
	token  string
	alg    string
	kid    string
	claims jwt.MapClaims
}

func (a *AuthenticatedToken) Token() string        { return a.token }
func (a *AuthenticatedToken) IsAuthenticated() bool { return true }

// Algorithm returns the verified signing algorithm.
func (a *AuthenticatedToken) Algorithm() string { return a.alg }

// KeyID returns the kid used to verify the token, empty for shared secrets.
func (a *AuthenticatedToken) KeyID() string { return a.kid }

// Subject returns the "sub" claim, the authenticated principal.
func (a *AuthenticatedToken) Subject() string {
	sub, _ := a.claims.GetSubject()
	return sub
}

// Issuer returns the verified "iss" claim.
func (a *AuthenticatedToken) Issuer() string {
	iss, _ := a.claims.GetIssuer()
	return iss
}

// Claims unmarshals the verified claims into ref.
func (a *AuthenticatedToken) Claims(ref any) error {
	b, err := json.Marshal(a.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}

// Claim returns a single raw claim value.
func (a *AuthenticatedToken) Claim(name string) (any, bool) {
	v, ok := a.claims[name]
	return v, ok
}

// Authorities returns the granted authorities: each space-delimited entry of
// the "scope" claim followed by each entry of a "permissions" array.
// Duplicates are removed, first occurrence wins.
func (a *AuthenticatedToken) Authorities() []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	if scope, ok := a.claims["scope"].(string); ok {
		for _, s := range strings.Fields(scope) {
			add(s)
		}
	}
	if perms, ok := a.claims["permissions"].([]any); ok {
		for _, p := range perms {
			if s, ok := p.(string); ok {
				add(s)
			}
		}
	}
	return out
}

var (
	_ Credential = (*PreAuthenticatedToken)(nil)
	_ Credential = (*AuthenticatedToken)(nil)
)
