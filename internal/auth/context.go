package auth

import "context"

type contextKey struct{}

type portalKey struct{}

// Context identifies an authenticated panel user on a request.
type Context struct {
	UserID    int64
	Role      string
	SessionID int64
}

// PortalContext identifies an authenticated portal visitor on a request.
type PortalContext struct {
	Email     string
	SessionID int64
}

func WithAuth(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (Context, bool) {
	ac, ok := ctx.Value(contextKey{}).(Context)
	return ac, ok
}

func WithPortal(ctx context.Context, pc PortalContext) context.Context {
	return context.WithValue(ctx, portalKey{}, pc)
}

func PortalFromContext(ctx context.Context) (PortalContext, bool) {
	pc, ok := ctx.Value(portalKey{}).(PortalContext)
	return pc, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == "admin"
}
