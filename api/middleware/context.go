package middleware

import "context"

type contextKey string

const ctxOwnerKey contextKey = "owner_key"

// OwnerKeyFromContext returns the cart owner identity resolved by the session
// middleware, or "" when none was resolved.
func OwnerKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOwnerKey).(string); ok {
		return v
	}
	return ""
}

// WithOwnerKey injects the owner identity into the context.
func WithOwnerKey(ctx context.Context, ownerKey string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwnerKey, ownerKey)
}
