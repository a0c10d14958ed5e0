package jwtauth

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config controls claim validation for verified tokens.
type Config struct {
	Issuer   string
	Audience string
	// AllowedAlgs optionally narrows the algorithms accepted for a key type.
	// Empty means every algorithm compatible with the key.
	AllowedAlgs        []string
	Leeway             time.Duration
	ExpirationRequired bool
}

// Validate returns an error if required invariants are not met.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is required")
	}
	if c.Issuer == "" {
		return errors.New("issuer is required")
	}
	if c.Audience == "" {
		return errors.New("audience is required")
	}
	if slices.Contains(c.AllowedAlgs, "none") {
		return errors.New(`alg "none" is never allowed`)
	}
	return nil
}

// ErrMalformedToken indicates the token is not a well formed compact JWS.
var ErrMalformedToken = errors.New("jwtauth: malformed token")

// ErrSignatureInvalid indicates the signature did not verify, or the declared
// algorithm is not compatible with the resolved key.
var ErrSignatureInvalid = errors.New("jwtauth: signature invalid")

// ErrClaimInvalid indicates a required claim (iss, aud, exp, nbf, iat) was
// missing or did not match.
var ErrClaimInvalid = errors.New("jwtauth: claim invalid")

// Header carries the unverified header members needed before verification.
type Header struct {
	Alg    string
	KeyID  string
	HasKID bool
}

// ParseHeader decodes the token header without verifying anything. Nothing
// returned here may be trusted beyond choosing a key.
func ParseHeader(tok string) (Header, error) {
	if tok == "" {
		return Header{}, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}
	t, _, err := jwt.NewParser().ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	h := Header{Alg: t.Method.Alg()}
	if kid, ok := t.Header["kid"].(string); ok && kid != "" {
		h.KeyID, h.HasKID = kid, true
	}
	return h, nil
}

// Verifier checks signatures and claims against an immutable Config.
type Verifier struct {
	cfg Config
}

// NewVerifier validates cfg and returns a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.AllowedAlgs = slices.Clone(cfg.AllowedAlgs)
	return &Verifier{cfg: cfg}, nil
}

// Config returns a copy of the verifier configuration.
func (v *Verifier) Config() Config {
	c := v.cfg
	c.AllowedAlgs = slices.Clone(v.cfg.AllowedAlgs)
	return c
}

// Verify checks the token signature with key and then validates the claims.
// Signature verification always precedes claim validation.
func (v *Verifier) Verify(tok string, key any) (jwt.MapClaims, error) {
	algs := v.methodsFor(key)
	if len(algs) == 0 {
		return nil, fmt.Errorf("%w: no algorithm accepted for key type %T", ErrSignatureInvalid, key)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithLeeway(v.cfg.Leeway),
		jwt.WithIssuedAt(),
	}
	if v.cfg.ExpirationRequired {
		opts = append(opts, jwt.WithExpirationRequired())
	}
	parser := jwt.NewParser(opts...)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) { return key, nil })
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %w", ErrClaimInvalid, err)
	default:
		// Signature mismatch, disallowed alg, or a key the method cannot use.
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
}

func (v *Verifier) methodsFor(key any) []string {
	var compatible []string
	switch key.(type) {
	case []byte:
		compatible = []string{"HS256", "HS384", "HS512"}
	case *rsa.PublicKey:
		compatible = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}
	case *ecdsa.PublicKey:
		compatible = []string{"ES256", "ES384", "ES512"}
	case ed25519.PublicKey:
		compatible = []string{"EdDSA"}
	default:
		return nil
	}
	if len(v.cfg.AllowedAlgs) == 0 {
		return compatible
	}
	out := compatible[:0:0]
	for _, a := range compatible {
		if slices.Contains(v.cfg.AllowedAlgs, a) {
			out = append(out, a)
		}
	}
	return out
}
