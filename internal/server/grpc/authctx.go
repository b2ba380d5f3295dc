package grpcserver

import (
	"context"

	"github.com/and161185/prismcms/internal/model"
)

type ctxKey string

const userKey ctxKey = "prismcms.user"

// WithUser stores the authenticated session user in context.
func WithUser(ctx context.Context, u model.SessionUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the session user from context.
func UserFromCtx(ctx context.Context) (model.SessionUser, bool) {
	u, ok := ctx.Value(userKey).(model.SessionUser)
	return u, ok
}
