package gateway

import "context"

// User is the authenticated shopper.
type User struct {
	ID    string
	Email string
}

// AuthSession resolves the current user. A nil user means unauthenticated,
// which checkout treats as a precondition (redirect to login), not an
// error.
type AuthSession interface {
	CurrentUser(ctx context.Context) *User
}

type contextKey string

const userContextKey contextKey = "auth_user"

// WithUser stores the authenticated user on the context. The HTTP auth
// middleware calls this after validating the session token.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// ContextSession reads the user the auth middleware stored on the request
// context.
type ContextSession struct{}

func (ContextSession) CurrentUser(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}
