// Package auth is the identity-provider boundary. The messaging core
// trusts whatever user the provider put on the context and never
// verifies identity on its own.
package auth

import (
	"context"

	"github.com/neighborhq/neighbor/types"
)

var ctxKeyUser = struct{ name string }{name: "ctx-key-user"}

func ContextWithUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func UserFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(types.User)
	return user, ok
}
