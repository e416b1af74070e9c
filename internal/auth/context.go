package auth

import "context"

type contextKey struct{}

// Principal is the identity resolved from a session token. The interface is
// sealed so a request context carries an admin identity or a user identity,
// never both.
type Principal interface {
	principal()
}

type AdminPrincipal struct {
	AdminID   int64
	Username  string
	SessionID int64
}

func (AdminPrincipal) principal() {}

type UserPrincipal struct {
	UserID    int64
	Email     string
	Name      string
	SessionID int64
}

func (UserPrincipal) principal() {}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// AdminFromContext returns the admin identity, if the request carries one.
func AdminFromContext(ctx context.Context) (AdminPrincipal, bool) {
	a, ok := ctx.Value(contextKey{}).(AdminPrincipal)
	return a, ok
}

// UserFromContext returns the user identity, if the request carries one.
func UserFromContext(ctx context.Context) (UserPrincipal, bool) {
	u, ok := ctx.Value(contextKey{}).(UserPrincipal)
	return u, ok
}

func IsAdmin(ctx context.Context) bool {
	_, ok := AdminFromContext(ctx)
	return ok
}
