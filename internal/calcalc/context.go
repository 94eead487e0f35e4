package calcalc

import "context"

type userKey struct{}

// WithUser attaches the name of the caller, stored with recorded evaluations.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the caller attached by WithUser, or "".
func UserFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey{}).(string)
	return user
}
