package auth

import "context"

type claimsKey struct{}

// WithClaims attaches verified claims to ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext returns the claims attached by the middleware, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Allowed reports whether the caller on ctx may use scope. A request without
// claims passed through a disabled middleware and is allowed.
func Allowed(ctx context.Context, scope string) bool {
	claims, ok := FromContext(ctx)
	return !ok || claims.HasScope(scope)
}
