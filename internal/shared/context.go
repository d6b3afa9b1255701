package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// IsAuthenticated reports whether the request carries an authenticated session.
func IsAuthenticated(ctx context.Context) bool {
	sess := SessionFromContext(ctx)
	return sess != nil && sess.Authenticated()
}
