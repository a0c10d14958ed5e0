package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ggoodman/jwt-authn/internal/jwtauth"
	"github.com/ggoodman/jwt-authn/internal/logctx"
	"github.com/ggoodman/jwt-authn/jwks"
)

// ErrUnsupportedCredential is returned by Authenticate for credential types
// the authenticator does not handle. Check Supports first.
var ErrUnsupportedCredential = errors.New("auth: unsupported credential type")

const (
	strategySecret = "secret"
	strategyJWK    = "jwk"
)

// JWTAuthenticator verifies bearer JWTs signed either with a shared HMAC
// secret or with an asymmetric key looked up by kid. It holds only immutable
// configuration and is safe for concurrent use.
type JWTAuthenticator struct {
	strategy string
	resolver jwtauth.KeyResolver
	verifier *jwtauth.Verifier
	log      *slog.Logger
}

var _ Provider = (*JWTAuthenticator)(nil)

// NewWithSecret returns an authenticator for HS256/384/512 tokens signed with
// secret. The secret, issuer and audience must all be non-empty.
func NewWithSecret(secret []byte, issuer, audience string, opts ...Option) (*JWTAuthenticator, error) {
	r, err := jwtauth.NewSecretResolver(secret)
	if err != nil {
		return nil, err
	}
	return newAuthenticator(strategySecret, r, issuer, audience, opts)
}

// NewWithJWKProvider returns an authenticator for asymmetrically signed tokens
// whose verification key is looked up by the header kid. A nil provider is
// accepted; every Authenticate call then fails with KindConfiguration.
func NewWithJWKProvider(p jwks.Provider, issuer, audience string, opts ...Option) (*JWTAuthenticator, error) {
	return newAuthenticator(strategyJWK, jwtauth.NewJWKResolver(p), issuer, audience, opts)
}

func newAuthenticator(strategy string, r jwtauth.KeyResolver, issuer, audience string, opts []Option) (*JWTAuthenticator, error) {
	s := settings{cfg: jwtauth.Config{Issuer: issuer, Audience: audience}}
	for _, opt := range opts {
		opt(&s)
	}
	v, err := jwtauth.NewVerifier(s.cfg)
	if err != nil {
		return nil, err
	}
	log := s.log
	if log == nil {
		log = slog.Default()
	}
	log = slog.New(logctx.Handler{Handler: log.Handler()})
	return &JWTAuthenticator{strategy: strategy, resolver: r, verifier: v, log: log}, nil
}

// Supports reports whether c is a representation this authenticator accepts:
// an unverified bearer token.
func (a *JWTAuthenticator) Supports(c Credential) bool {
	_, ok := c.(*PreAuthenticatedToken)
	return ok
}

// Authenticate verifies the presented token. On success the returned
// AuthenticatedToken carries the verified claims. On failure the error is an
// *Error whose Kind separates bad credentials from service faults.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, c Credential) (*AuthenticatedToken, error) {
	pre, ok := c.(*PreAuthenticatedToken)
	if !ok {
		return nil, ErrUnsupportedCredential
	}
	var tok string
	if pre != nil {
		tok = pre.token
	}

	ctx, attempt := logctx.WithAttemptData(ctx, a.strategy)

	if err := a.resolver.Ready(); err != nil {
		return nil, a.reject(ctx, resolveError(err))
	}

	h, err := jwtauth.ParseHeader(tok)
	if err != nil {
		return nil, a.reject(ctx, &Error{Kind: KindCredential, Message: MsgInvalidToken, Cause: err})
	}
	attempt.Alg, attempt.KeyID = h.Alg, h.KeyID

	key, err := a.resolver.Resolve(ctx, h)
	if err != nil {
		return nil, a.reject(ctx, resolveError(err))
	}

	claims, err := a.verifier.Verify(tok, key)
	if err != nil {
		return nil, a.reject(ctx, &Error{Kind: KindCredential, Message: MsgInvalidToken, Cause: err})
	}

	res := &AuthenticatedToken{token: tok, alg: h.Alg, kid: h.KeyID, claims: claims}
	a.log.DebugContext(ctx, "authn.accepted", slog.String("sub", res.Subject()))
	return res, nil
}

func resolveError(err error) *Error {
	switch {
	case errors.Is(err, jwtauth.ErrMissingProvider):
		return &Error{Kind: KindConfiguration, Message: MsgMissingProvider}
	case errors.Is(err, jwtauth.ErrMissingKeyID):
		return &Error{Kind: KindCredential, Message: MsgNoKeyID}
	case errors.Is(err, jwtauth.ErrKeysUnavailable):
		return &Error{Kind: KindInfrastructure, Message: MsgKeysUnavailable, Cause: err}
	case errors.Is(err, jwtauth.ErrPublicKeyUnavailable):
		return &Error{Kind: KindInfrastructure, Message: MsgPublicKeyUnavailable, Cause: err}
	default:
		return &Error{Kind: KindInfrastructure, Message: MsgCannotAuthenticate, Cause: err}
	}
}

func (a *JWTAuthenticator) reject(ctx context.Context, e *Error) *Error {
	attrs := []any{slog.String("kind", e.Kind.String()), slog.String("reason", e.Message)}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}
	if e.Kind == KindCredential {
		a.log.DebugContext(ctx, "authn.rejected", attrs...)
	} else {
		a.log.WarnContext(ctx, "authn.failed", attrs...)
	}
	return e
}
