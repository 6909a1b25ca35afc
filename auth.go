package pushdown

import (
	"context"

	"github.com/hugr-lab/pushdown-go/auth"
)

// Authenticator validates bearer tokens and returns user identity.
// This is re-exported from the auth package for convenience.
type Authenticator = auth.Authenticator

// BearerAuth creates an Authenticator from a validation function.
//
//	authenticator := pushdown.BearerAuth(func(token string) (string, error) {
//	    if token != apiKey {
//	        return "", pushdown.ErrUnauthorized
//	    }
//	    return "service", nil
//	})
func BearerAuth(validateFunc func(token string) (identity string, err error)) Authenticator {
	return auth.BearerAuth(validateFunc)
}

// IdentityFromContext retrieves the authenticated user identity from context.
// Tables can use it in Scan to restrict what a caller sees.
// Returns empty string if no identity is set (unauthenticated request).
func IdentityFromContext(ctx context.Context) string {
	return auth.IdentityFromContext(ctx)
}
