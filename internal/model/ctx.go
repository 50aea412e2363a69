package model

import "context"

type ctxKeyActor struct{}

// WithActor records the authenticated user id performing the request.
func WithActor(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ctxKeyActor{}, userID)
}

func ActorFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(ctxKeyActor{}).(uint)
	return id, ok
}
