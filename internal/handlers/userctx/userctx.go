package userctx

import (
	"context"

	"github.com/nkiryanov/identity/internal/models"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// Create a new context with verified access token claims
func New(ctx context.Context, c models.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// Extract access token claims from the context
func FromContext(ctx context.Context) (models.AccessClaims, bool) {
	c, ok := ctx.Value(claimsKey).(models.AccessClaims)
	return c, ok
}
