// Package auth carries verified token claims through a request context.
//
// The HTTP middleware verifies the bearer token and calls WithClaims; code
// further down the chain reads them back with FromContext and never touches
// the raw token.
package auth

import "context"

// Claims describes the authenticated principal.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the claims attached by WithClaims.
// ok is false when nothing was attached or the attached username is empty.
func FromContext(ctx context.Context) (Claims, bool) {
	if ctx == nil {
		return Claims{}, false
	}
	c, ok := ctx.Value(claimsKey{}).(Claims)
	if !ok || c.Username == "" {
		return Claims{}, false
	}
	return c, true
}
