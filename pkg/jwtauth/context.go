package jwtauth

import (
	"context"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

type claimsCtxKey struct{}

// ContextWithClaims attaches verified claims to ctx.
func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, c)
}

// ClaimsFromContext returns the claims the gate attached, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey{}).(jwtx.Claims)
	return c, ok
}
