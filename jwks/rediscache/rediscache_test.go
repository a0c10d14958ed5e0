package rediscache

import (
	"context"
	"crypto"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ggoodman/jwt-authn/auth/authtest"
	"github.com/ggoodman/jwt-authn/jwks"
	"github.com/redis/go-redis/v9"
)

func TestNew_RequiresClientAndUpstream(t *testing.T) {
	if _, err := New(Config{Upstream: jwks.ProviderFunc(nil)}); err == nil {
		t.Fatalf("expected error without client")
	}
	cl := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer cl.Close()
	if _, err := New(Config{Client: cl}); err == nil {
		t.Fatalf("expected error without upstream")
	}
}

func TestRedisCache(t *testing.T) {
	// Skip test if Redis is not available
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   3, // Use separate DB for cache tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clean up test data
	defer client.FlushDB(ctx)

	rk := authtest.GenRSA(t)
	var calls atomic.Int32
	upstream := jwks.ProviderFunc(func(ctx context.Context, kid string) (jwks.JWK, error) {
		calls.Add(1)
		return authtest.StaticProvider(map[string]crypto.PublicKey{"key-id": &rk.PublicKey}).Get(ctx, kid)
	})

	p, err := New(Config{Client: client, Upstream: upstream, TTL: time.Minute})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer p.Close()

	t.Run("ReadThrough", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			k, err := p.Get(ctx, "key-id")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			pub, err := k.PublicKey()
			if err != nil {
				t.Fatalf("public key: %v", err)
			}
			if !rk.PublicKey.Equal(pub) {
				t.Fatalf("wrong key from cache")
			}
		}
		if n := calls.Load(); n != 1 {
			t.Fatalf("upstream called %d times, want 1", n)
		}
		ttl, err := client.TTL(ctx, "jwtauthn:jwks:key-id").Result()
		if err != nil || ttl <= 0 || ttl > time.Minute {
			t.Fatalf("unexpected ttl %v (%v)", ttl, err)
		}
	})

	t.Run("MissNotCached", func(t *testing.T) {
		before := calls.Load()
		for i := 0; i < 2; i++ {
			if _, err := p.Get(ctx, "unknown"); !errors.Is(err, jwks.ErrSigningKeyNotFound) {
				t.Fatalf("want ErrSigningKeyNotFound, got %v", err)
			}
		}
		if n := calls.Load() - before; n != 2 {
			t.Fatalf("upstream called %d times, want 2", n)
		}
	})

	t.Run("CorruptEntryRefetched", func(t *testing.T) {
		if err := client.Set(ctx, "jwtauthn:jwks:key-id", "{", time.Minute).Err(); err != nil {
			t.Fatalf("seed: %v", err)
		}
		before := calls.Load()
		if _, err := p.Get(ctx, "key-id"); err != nil {
			t.Fatalf("get: %v", err)
		}
		if calls.Load() != before+1 {
			t.Fatalf("corrupt entry not refetched")
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		if err := p.Invalidate(ctx, "key-id"); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		if n, _ := client.Exists(ctx, "jwtauthn:jwks:key-id").Result(); n != 0 {
			t.Fatalf("key still cached")
		}
	})
}
