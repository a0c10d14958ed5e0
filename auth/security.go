package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ggoodman/jwt-authn/jwks"
	"github.com/ggoodman/jwt-authn/jwks/rediscache"
	"github.com/joeshaw/envdecode"
)

// Config is the declarative form of an authenticator: the expected trust
// parameters plus exactly one key source. It can be populated from the
// environment with ConfigFromEnv.
type Config struct {
	Issuer   string `env:"JWT_ISSUER"`
	Audience string `env:"JWT_AUDIENCE"`

	// Key sources; exactly one must be set.
	Secret    string `env:"JWT_SECRET"`
	JWKSURL   string `env:"JWT_JWKS_URL"`
	JWKSFile  string `env:"JWT_JWKS_FILE"`
	Discovery bool   `env:"JWT_DISCOVERY,default=false"`

	// RedisCache shares resolved public keys through Redis (see
	// rediscache.NewFromEnv for connection settings). Ignored for Secret.
	RedisCache bool `env:"JWT_JWKS_REDIS_CACHE,default=false"`

	AllowedAlgs        []string      `env:"JWT_ALLOWED_ALGS"` // semicolon separated
	Leeway             time.Duration `env:"JWT_LEEWAY,default=0s"`
	ExpirationRequired bool          `env:"JWT_REQUIRE_EXP,default=false"`
}

// ConfigFromEnv decodes a Config from JWT_* environment variables.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}
	return c, nil
}

// Validate returns an error if required invariants are not met.
func (c Config) Validate() error {
	if c.Issuer == nilString {
		return errors.New("security: issuer required")
	}
	if c.Audience == nilString {
		return errors.New("security: audience required")
	}
	sources := 0
	for _, set := range []bool{c.Secret != "", c.JWKSURL != "", c.JWKSFile != "", c.Discovery} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("security: exactly one key source required, got %d", sources)
	}
	return nil
}

const nilString = ""

// Copy returns a deep copy safe for mutation by the caller.
func (c Config) Copy() Config {
	dup := c
	dup.AllowedAlgs = append([]string(nil), c.AllowedAlgs...)
	return dup
}

func (c Config) options() []Option {
	opts := []Option{WithLeeway(c.Leeway)}
	if len(c.AllowedAlgs) > 0 {
		opts = append(opts, WithAllowedAlgs(c.AllowedAlgs...))
	}
	if c.ExpirationRequired {
		opts = append(opts, WithExpirationRequired())
	}
	return opts
}

// NewFromConfig builds an authenticator from c. Remote key sets are refreshed
// and key files watched in the background until ctx is cancelled. Options in
// opts are applied after those derived from c.
func NewFromConfig(ctx context.Context, c Config, opts ...Option) (*JWTAuthenticator, error) {
	cc := c.Copy()
	if err := cc.Validate(); err != nil {
		return nil, err
	}
	all := append(cc.options(), opts...)

	if cc.Secret != "" {
		return NewWithSecret([]byte(cc.Secret), cc.Issuer, cc.Audience, all...)
	}

	var s settings
	for _, opt := range all {
		opt(&s)
	}
	log := s.log
	if log == nil {
		log = slog.Default()
	}

	var p jwks.Provider
	switch {
	case cc.JWKSFile != "":
		fp, err := jwks.NewFileProvider(cc.JWKSFile, log)
		if err != nil {
			return nil, err
		}
		go func() {
			if err := fp.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WarnContext(ctx, "jwks.file.watch_stopped", slog.String("err", err.Error()))
			}
		}()
		p = fp
	case cc.JWKSURL != "":
		rp, err := jwks.NewRemote(ctx, cc.JWKSURL)
		if err != nil {
			return nil, err
		}
		p = rp
	case cc.Discovery:
		dp, err := jwks.NewFromDiscovery(ctx, cc.Issuer)
		if err != nil {
			return nil, err
		}
		p = dp
	}

	if cc.RedisCache {
		cp, err := rediscache.NewFromEnv(ctx, p)
		if err != nil {
			return nil, err
		}
		p = cp
	}

	return NewWithJWKProvider(p, cc.Issuer, cc.Audience, all...)
}
