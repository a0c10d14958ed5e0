// Package rediscache provides a jwks.Provider decorator that shares resolved
// keys across processes through Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ggoodman/jwt-authn/jwks"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config contains configuration options for the Redis key cache.
type Config struct {
	// Client is the Redis client instance
	Client *redis.Client

	// Upstream is consulted on cache miss.
	Upstream jwks.Provider

	// KeyPrefix is the prefix for all Redis keys
	// Default: "jwtauthn:jwks:"
	KeyPrefix string

	// TTL bounds how long a key is served from cache.
	// Default: 10m
	TTL time.Duration

	Logger *slog.Logger
}

// EnvConfig is the subset of Config that can be loaded from the environment.
type EnvConfig struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: JWKS_CACHE_KEY_PREFIX
	KeyPrefix string `env:"JWKS_CACHE_KEY_PREFIX,default=jwtauthn:jwks:"`
	// TTL for cached keys. ENV: JWKS_CACHE_TTL
	TTL time.Duration `env:"JWKS_CACHE_TTL,default=10m"`
}

// Provider implements jwks.Provider with a Redis read-through cache.
type Provider struct {
	client    *redis.Client
	upstream  jwks.Provider
	keyPrefix string
	ttl       time.Duration
	log       *slog.Logger
}

var _ jwks.Provider = (*Provider)(nil)

// New creates a caching provider.
func New(config Config) (*Provider, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.Upstream == nil {
		return nil, fmt.Errorf("upstream provider is required")
	}

	// Apply defaults
	if config.KeyPrefix == "" {
		config.KeyPrefix = "jwtauthn:jwks:"
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Provider{
		client:    config.Client,
		upstream:  config.Upstream,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
		log:       config.Logger,
	}, nil
}

// NewFromEnv builds a Provider using envdecode to populate connection
// settings. The Redis connection is verified with a ping.
func NewFromEnv(ctx context.Context, upstream jwks.Provider) (*Provider, error) {
	var ec EnvConfig
	if err := envdecode.Decode(&ec); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	cl := redis.NewClient(&redis.Options{Addr: ec.RedisAddr})
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(Config{Client: cl, Upstream: upstream, KeyPrefix: ec.KeyPrefix, TTL: ec.TTL})
}

// Get implements jwks.Provider. Redis failures degrade to the upstream
// provider; lookup failures are never cached.
func (p *Provider) Get(ctx context.Context, kid string) (jwks.JWK, error) {
	redisKey := p.keyPrefix + kid

	raw, err := p.client.Get(ctx, redisKey).Bytes()
	switch {
	case err == nil:
		var k jwks.JWK
		uerr := json.Unmarshal(raw, &k)
		if uerr == nil {
			return k, nil
		}
		p.log.WarnContext(ctx, "jwks.cache.corrupt", slog.String("kid", kid), slog.String("err", uerr.Error()))
	case errors.Is(err, redis.Nil):
	default:
		p.log.WarnContext(ctx, "jwks.cache.get_failed", slog.String("kid", kid), slog.String("err", err.Error()))
	}

	k, err := p.upstream.Get(ctx, kid)
	if err != nil {
		return jwks.JWK{}, err
	}
	b, err := json.Marshal(k)
	if err != nil {
		// Undecodable key material: hand it back so the caller classifies it.
		return k, nil
	}
	if err := p.client.Set(ctx, redisKey, b, p.ttl).Err(); err != nil {
		p.log.WarnContext(ctx, "jwks.cache.set_failed", slog.String("kid", kid), slog.String("err", err.Error()))
	}
	return k, nil
}

// Invalidate drops a cached key.
func (p *Provider) Invalidate(ctx context.Context, kid string) error {
	if err := p.client.Del(ctx, p.keyPrefix+kid).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", kid, err)
	}
	return nil
}

// Close closes the Redis client.
func (p *Provider) Close() error { return p.client.Close() }
