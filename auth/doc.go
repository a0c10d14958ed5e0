// Package auth verifies bearer JSON Web Tokens and classifies why a token was
// rejected.
//
// A JWTAuthenticator is constructed once with the expected issuer and
// audience and one key strategy: a shared HMAC secret (NewWithSecret) or a
// jwks.Provider that maps the token's "kid" header to a public key
// (NewWithJWKProvider). It is immutable and safe for concurrent use.
//
// Example:
//
//	p, err := jwks.NewRemote(ctx, "https://issuer.example/.well-known/jwks.json")
//	if err != nil { log.Fatal(err) }
//	authn, err := auth.NewWithJWKProvider(p, "https://issuer.example/", "https://api.example")
//	if err != nil { log.Fatal(err) }
//
//	// Later inside request handling (pseudocode):
//	id, err := authn.Authenticate(r.Context(), auth.UsingToken(bearerToken))
//	if errors.Is(err, auth.ErrBadCredentials) { /* 401 */ }
//	if errors.Is(err, auth.ErrAuthenticationService) { /* 503 */ }
//	userID := id.Subject()
//
// # Credentials
//
// A PreAuthenticatedToken is what the client presented; an
// AuthenticatedToken is what verification proved. They are different types,
// so one cannot be passed where the other is expected. Supports reports
// whether a Provider understands a given Credential, which lets a Chain hold
// several authenticators.
//
// # Errors
//
// Failures are *Error values. KindCredential errors carry a deliberately
// vague message ("Not a valid token", "No kid found in jwt") so a caller
// cannot learn which check failed; the precise reason is kept in Cause for
// server-side logs. KindConfiguration and KindInfrastructure errors describe
// operational faults in the key provider and may be specific.
//
// Verification
//
// The signature is always verified before any claim is examined. Accepted
// algorithms follow the key type (HS* for secrets, RS*/PS*, ES* or EdDSA for
// public keys) and may be narrowed with WithAllowedAlgs. The "iss" claim must
// equal the expected issuer and "aud" must equal, or as an array contain, the
// expected audience. "exp", "nbf" and "iat" are checked when present, with
// WithLeeway clock skew; WithExpirationRequired makes "exp" mandatory.
package auth
