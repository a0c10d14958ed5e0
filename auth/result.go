package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthenticationChallenge describes an HTTP challenge (status + WWW-Authenticate header).
type AuthenticationChallenge struct {
	Status          int
	WWWAuthenticate string
}

// ErrNoBearerToken is returned by BearerToken when the request carries no
// Authorization header.
var ErrNoBearerToken = errors.New("auth: no bearer token")

// ErrInvalidAuthorizationHeader is returned by BearerToken for a header that
// is present but not a Bearer credential.
var ErrInvalidAuthorizationHeader = errors.New("auth: invalid authorization header")

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrNoBearerToken
	}
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidAuthorizationHeader
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", ErrInvalidAuthorizationHeader
	}
	return tok, nil
}

// Challenge maps an authentication error onto an HTTP challenge. Only the
// display message of an *Error is echoed; its cause never is.
func Challenge(realm string, err error) *AuthenticationChallenge {
	var ae *Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoBearerToken):
		return &AuthenticationChallenge{
			Status:          http.StatusUnauthorized,
			WWWAuthenticate: fmt.Sprintf(`Bearer realm="%s"`, realm),
		}
	case errors.Is(err, ErrInvalidAuthorizationHeader):
		return &AuthenticationChallenge{
			Status:          http.StatusBadRequest,
			WWWAuthenticate: fmt.Sprintf(`Bearer realm="%s", error="invalid_request", error_description="Invalid Authorization header"`, realm),
		}
	case errors.As(err, &ae) && ae.Kind == KindCredential:
		return &AuthenticationChallenge{
			Status:          http.StatusUnauthorized,
			WWWAuthenticate: fmt.Sprintf(`Bearer realm="%s", error="invalid_token", error_description="%s"`, realm, ae.Message),
		}
	default:
		// Service faults are not the client's problem; no Bearer challenge.
		return &AuthenticationChallenge{Status: http.StatusServiceUnavailable}
	}
}
