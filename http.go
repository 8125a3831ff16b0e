package identity

import (
	"time"

	"github.com/fleetpass/go-identity/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator is the per-request authorization gate: it validates the
// bearer token on protected routes and leaves the claims in the router locals
// for the role guards and handlers that follow.
type RouteAuthenticator struct {
	auth           Authenticator
	cfg            Config
	cookieDuration time.Duration
	Logger         Logger
	ErrorHandler   func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// ProtectedRoute wraps a route with the token gate.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:      cfg.GetAuthScheme(),
			ContextKey:      cfg.GetContextKey(),
			TokenLookup:     cfg.GetTokenLookup(),
			TokenValidator:  tokenValidatorAdapter{a.auth},
			ContextEnricher: ContextEnricherAdapter,
		})(hf)
	}
}

// Login verifies credentials and sets the token cookie.
func (a *RouteAuthenticator) Login(ctx router.Context, email, password string) (string, error) {
	token, err := a.auth.Login(ctx.Context(), email, password)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return token, nil
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

// MakeAuthErrorHandler translates gate failures into the three surfaced
// kinds: missing, expired, malformed. Nothing else about the token leaks.
func (a *RouteAuthenticator) MakeAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		switch {
		case errors.Is(err, jwtware.ErrJWTMissing):
			richErr = ErrTokenMissing
		case IsTokenExpiredError(err):
			richErr = ErrTokenExpired
		case IsMalformedError(err):
			richErr = ErrTokenMalformed
		default:
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Gate error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(richErr.Code, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// tokenValidatorAdapter bridges the Authenticator into the jwtware contract.
type tokenValidatorAdapter struct {
	auth Authenticator
}

func (t tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := t.auth.ClaimsFromToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
