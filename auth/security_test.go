package auth

import (
	"context"
	"crypto"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ggoodman/jwt-authn/auth/authtest"
	"github.com/ggoodman/jwt-authn/jwks"
	"github.com/golang-jwt/jwt/v5"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{name: "secret", cfg: Config{Issuer: "i", Audience: "a", Secret: "s"}, ok: true},
		{name: "jwks url", cfg: Config{Issuer: "i", Audience: "a", JWKSURL: "https://x/keys"}, ok: true},
		{name: "discovery", cfg: Config{Issuer: "i", Audience: "a", Discovery: true}, ok: true},
		{name: "no issuer", cfg: Config{Audience: "a", Secret: "s"}},
		{name: "no audience", cfg: Config{Issuer: "i", Secret: "s"}},
		{name: "no key source", cfg: Config{Issuer: "i", Audience: "a"}},
		{name: "two key sources", cfg: Config{Issuer: "i", Audience: "a", Secret: "s", JWKSFile: "/tmp/keys.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok != (err == nil) {
				t.Fatalf("ok=%v, err=%v", tt.ok, err)
			}
		})
	}
}

func TestConfig_Copy(t *testing.T) {
	c := Config{AllowedAlgs: []string{"RS256"}}
	dup := c.Copy()
	dup.AllowedAlgs[0] = "HS256"
	if !reflect.DeepEqual(c.AllowedAlgs, []string{"RS256"}) {
		t.Fatalf("copy aliases AllowedAlgs: %v", c.AllowedAlgs)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_ISSUER", "https://issuer.example/")
	t.Setenv("JWT_AUDIENCE", "https://api.example")
	t.Setenv("JWT_SECRET", "shh")
	t.Setenv("JWT_LEEWAY", "30s")
	t.Setenv("JWT_ALLOWED_ALGS", "HS256;HS512")

	c, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	want := Config{
		Issuer:      "https://issuer.example/",
		Audience:    "https://api.example",
		Secret:      "shh",
		AllowedAlgs: []string{"HS256", "HS512"},
		Leeway:      30 * time.Second,
	}
	if !reflect.DeepEqual(c, want) {
		t.Fatalf("got %+v, want %+v", c, want)
	}
}

func TestNewFromConfig_Secret(t *testing.T) {
	a, err := NewFromConfig(context.Background(), Config{Issuer: "issuer", Audience: "audience", Secret: "secret", ExpirationRequired: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tok := authtest.SignHS256(t, []byte("secret"), jwt.MapClaims{"iss": "issuer", "aud": "audience"})
	if _, err := a.Authenticate(context.Background(), UsingToken(tok)); err == nil {
		t.Fatalf("expected exp to be required")
	}
	tok = authtest.SignHS256(t, []byte("secret"), jwt.MapClaims{"iss": "issuer", "aud": "audience", "exp": time.Now().Add(time.Hour).Unix()})
	if _, err := a.Authenticate(context.Background(), UsingToken(tok)); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestNewFromConfig_JWKSources(t *testing.T) {
	pk := authtest.GenRSA(t)
	keys := map[string]crypto.PublicKey{"key-id": &pk.PublicKey}
	srv := authtest.JWKSServer(t, keys)

	file := filepath.Join(t.TempDir(), "jwks.json")
	if err := os.WriteFile(file, authtest.JWKSDocument(t, keys), 0o600); err != nil {
		t.Fatalf("write jwks: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "file", cfg: Config{Issuer: srv.URL, Audience: "audience", JWKSFile: file}},
		{name: "url", cfg: Config{Issuer: srv.URL, Audience: "audience", JWKSURL: srv.URL + "/keys"}},
		{name: "discovery", cfg: Config{Issuer: srv.URL, Audience: "audience", Discovery: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			a, err := NewFromConfig(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			tok := authtest.SignRS256(t, pk, "key-id", jwt.MapClaims{"iss": srv.URL, "aud": "audience", "sub": "u"})
			res, err := a.Authenticate(ctx, UsingToken(tok))
			if err != nil {
				t.Fatalf("authenticate: %v", err)
			}
			if res.Subject() != "u" {
				t.Fatalf("unexpected subject %q", res.Subject())
			}

			tok = authtest.SignRS256(t, pk, "unknown", jwt.MapClaims{"iss": srv.URL, "aud": "audience"})
			_, err = a.Authenticate(ctx, UsingToken(tok))
			wantError(t, err, KindInfrastructure, MsgKeysUnavailable, jwks.ErrSigningKeyNotFound)
		})
	}
}
