package identity

import (
	"github.com/goliatone/go-router"
)

// GuardOption configures role guard middleware.
type GuardOption func(*guardConfig)

type guardConfig struct {
	contextKey   string
	errorHandler func(router.Context, error) error
}

// WithGuardContextKey overrides the locals key the gate stored claims under.
func WithGuardContextKey(key string) GuardOption {
	return func(g *guardConfig) {
		if key != "" {
			g.contextKey = key
		}
	}
}

// WithGuardErrorHandler overrides how guard failures are rendered.
func WithGuardErrorHandler(handler func(router.Context, error) error) GuardOption {
	return func(g *guardConfig) {
		if handler != nil {
			g.errorHandler = handler
		}
	}
}

// RequireRole enforces an exact role match on the validated token claims.
// It runs after the authorization gate, which put the claims in the router
// locals: a missing claim set here means the gate was skipped and the
// request is unauthenticated.
func RequireRole(role Role, opts ...GuardOption) router.MiddlewareFunc {
	cfg := &guardConfig{
		contextKey:   "user",
		errorHandler: defaultGuardErrorHandler,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := GetRouterClaims(ctx, cfg.contextKey)
			if !ok {
				return cfg.errorHandler(ctx, ErrTokenMissing)
			}

			if !claims.HasRole(string(role)) {
				return cfg.errorHandler(ctx, ErrForbidden)
			}

			return next(ctx)
		}
	}
}

// RequireUser guards operations scoped to regular users.
func RequireUser(opts ...GuardOption) router.MiddlewareFunc {
	return RequireRole(RoleUser, opts...)
}

// RequireOperator guards operations scoped to operators.
func RequireOperator(opts ...GuardOption) router.MiddlewareFunc {
	return RequireRole(RoleOperator, opts...)
}

// RequirePartner guards operations scoped to partners.
func RequirePartner(opts ...GuardOption) router.MiddlewareFunc {
	return RequireRole(RolePartner, opts...)
}

func defaultGuardErrorHandler(ctx router.Context, err error) error {
	status := router.StatusForbidden
	if IsMalformedError(err) || IsTokenExpiredError(err) || err == ErrTokenMissing {
		status = router.StatusUnauthorized
	}

	return ctx.JSON(status, map[string]any{
		"error": err.Error(),
	})
}
