package quota

import "context"

type contextKey struct{}

// SetPrincipalToContext stores the authenticated principal for
// downstream enforcement middleware and handlers.
func SetPrincipalToContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// GetPrincipalFromContext retrieves the principal set by the
// authentication layer. Returns false when the request is anonymous.
func GetPrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok && p != nil
}
