package api

import (
	"context"

	"minuteman/store"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// ContextWithUser returns a context carrying the authenticated user.
func ContextWithUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*store.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(*store.User)
	return u, ok
}
