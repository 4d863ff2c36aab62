package userctx

import (
	"context"
	"errors"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const userIDKey contextKey = "user_id"

var (
	// ErrNoUserInContext is returned when user context is missing
	ErrNoUserInContext = errors.New("no user in context")
)

// WithUserID adds the authenticated user's ID to the context.
// This should be called by middleware after extracting the user from
// the gateway-set headers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID extracts the user ID from context.
// Returns ErrNoUserInContext if no user ID is found.
func UserID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoUserInContext
	}
	return id, nil
}
