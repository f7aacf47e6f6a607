package http

import (
	"context"
	"strings"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/logging"
)

type principalKey struct{}

// ContextWithPrincipal stores the caller resolved from the bearer token and
// tags the request logger with its id.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, principal)
	if logger := LoggerFromContext(ctx); logger != nil && principal.Authenticated() {
		ctx = logging.ContextWithLogger(ctx, logger.With("principal_id", principal.UserID))
	}
	return ctx
}

// PrincipalFromContext returns the caller. Anonymous requests yield the zero
// principal and false.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(application.Principal)
	return principal, ok
}

// userOrCaller returns the trimmed userID, or the caller's id when it is blank.
// Availability, swap and timesheet requests default their owner this way.
func userOrCaller(ctx context.Context, userID string) string {
	if id := strings.TrimSpace(userID); id != "" {
		return id
	}
	principal, _ := PrincipalFromContext(ctx)
	return principal.UserID
}
