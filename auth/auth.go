// Package auth provides bearer token authentication for pushdown servers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAuthHeader is returned when the authorization header is malformed.
	ErrInvalidAuthHeader = errors.New("authorization header must use Bearer scheme")

	// ErrTokenIsEmpty is returned when the bearer token is missing.
	ErrTokenIsEmpty = errors.New("authorization token is empty")

	// ErrUnauthenticated is returned when authentication fails.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Authenticator validates bearer tokens and returns user identity.
// Implementations MUST be goroutine-safe.
type Authenticator interface {
	// Authenticate validates a bearer token and returns user identity.
	// Context allows timeout for auth backend calls.
	Authenticate(ctx context.Context, token string) (identity string, err error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, token string) (string, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// BearerAuth creates an Authenticator from a validation function.
//
//	authenticator := auth.BearerAuth(func(token string) (string, error) {
//	    if token != os.Getenv("API_TOKEN") {
//	        return "", errors.New("unknown token")
//	    }
//	    return "service", nil
//	})
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return AuthenticatorFunc(func(_ context.Context, token string) (string, error) {
		return validate(token)
	})
}

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a new context carrying identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the authenticated user identity from context.
// Returns empty string if no identity is set (unauthenticated request).
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey).(string)
	return identity
}

const bearerPrefix = "Bearer "

// TokenFromAuthorizationHeader extracts the token from a "Bearer <token>"
// header value.
func TokenFromAuthorizationHeader(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrInvalidAuthHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", ErrTokenIsEmpty
	}
	return token, nil
}

// Authenticate validates the authorization header value and returns a
// context carrying the caller's identity.
func Authenticate(ctx context.Context, authenticator Authenticator, header string) (context.Context, error) {
	token, err := TokenFromAuthorizationHeader(header)
	if err != nil {
		return ctx, err
	}
	identity, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return WithIdentity(ctx, identity), nil
}
