package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxUserID contextKey = "user_id"

// ActorIDFromContext returns the authenticated staff member, or uuid.Nil.
func ActorIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func UserIDFromContext(ctx context.Context) string {
	id := ActorIDFromContext(ctx)
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// WithActorID injects the actor identifier into the context.
func WithActorID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}
