package auth

import (
	"log/slog"
	"time"

	"github.com/ggoodman/jwt-authn/internal/jwtauth"
)

type settings struct {
	cfg jwtauth.Config
	log *slog.Logger
}

// Option configures optional aspects of a JWTAuthenticator (algorithms,
// leeway, logging). Issuer and audience are required constructor arguments.
type Option func(*settings)

// WithAllowedAlgs restricts accepted JWS algorithms further than the key
// type already does. "none" is never allowed.
func WithAllowedAlgs(algs ...string) Option {
	return func(s *settings) {
		s.cfg.AllowedAlgs = append([]string(nil), algs...)
	}
}

// WithLeeway sets clock skew tolerance for time-based claims.
func WithLeeway(d time.Duration) Option {
	return func(s *settings) { s.cfg.Leeway = d }
}

// WithExpirationRequired rejects tokens without an "exp" claim. By default
// exp is only checked when present.
func WithExpirationRequired() Option {
	return func(s *settings) { s.cfg.ExpirationRequired = true }
}

// WithLogger sets the logger used for rejection diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.log = l }
}
