// Package authtest provides token signing and key serving helpers for tests
// of code that uses the auth and jwks packages.
package authtest

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ggoodman/jwt-authn/jwks"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// SignHS256 signs claims with secret.
func SignHS256(t testing.TB, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// GenRSA generates a 2048 bit RSA key.
func GenRSA(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	return pk
}

// SignRS256 signs claims with pk. An empty kid leaves the header without one.
func SignRS256(t testing.TB, pk *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(pk)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// StaticProvider returns a jwks.Provider over fixed kid -> key pairs. Unknown
// kids fail with jwks.ErrSigningKeyNotFound.
func StaticProvider(keys map[string]crypto.PublicKey) jwks.Provider {
	return jwks.ProviderFunc(func(_ context.Context, kid string) (jwks.JWK, error) {
		k, ok := keys[kid]
		if !ok {
			return jwks.JWK{}, fmt.Errorf("%w: kid %q", jwks.ErrSigningKeyNotFound, kid)
		}
		return jwks.NewJWK(kid, k), nil
	})
}

// JWKSDocument marshals kid -> public key pairs as a JWKS document.
func JWKSDocument(t testing.TB, keys map[string]crypto.PublicKey) []byte {
	t.Helper()
	var set jose.JSONWebKeySet
	for kid, k := range keys {
		set.Keys = append(set.Keys, jose.JSONWebKey{Key: k, KeyID: kid, Algorithm: "RS256", Use: "sig"})
	}
	b, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return b
}

// JWKSServer serves a JWKS document at /keys and an OpenID discovery document
// pointing at it. The server is closed when the test ends.
func JWKSServer(t testing.TB, keys map[string]crypto.PublicKey) *httptest.Server {
	t.Helper()
	doc := JWKSDocument(t, keys)
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                srv.URL,
			"jwks_uri":                              srv.URL + "/keys",
			"authorization_endpoint":                srv.URL + "/oauth2/auth",
			"token_endpoint":                        srv.URL + "/oauth2/token",
			"response_types_supported":              []string{"code"},
			"subject_types_supported":               []string{"public"},
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
