package shared

import "context"

type userContextKey struct{}

// ContextWithUser stores the authenticated user id in context.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// UserFromContext extracts the authenticated user id from context.
// Returns "" when the request carries no valid session.
func UserFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userContextKey{}).(string)
	return id
}
