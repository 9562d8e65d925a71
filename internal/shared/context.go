package shared

import "context"

type principalContextKey struct{}

// Principal describes the authenticated caller.
type Principal struct {
	UserID int64
	Email  string
	Role   Role
}

// ContextWithPrincipal stores the caller in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the caller from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
