package federated

import (
	"net/http"
	"net/url"
	"time"

	"github.com/fleetpass/go-identity/handshake"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles federated auth HTTP routes.
type HTTPController struct {
	authenticator *FederatedAuthenticator
	config        HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// PathPrefix for routes (default: "/auth/federated")
	PathPrefix string

	// CookieName for storing the JWT (default: "user")
	CookieName string

	// HandshakeCookieName keys the pending handshake to the initiating
	// browser (default: "federated_handshake")
	HandshakeCookieName string

	// CookieSecure sets the Secure flag on cookies
	CookieSecure bool

	// CookieHTTPOnly sets the HttpOnly flag on cookies
	CookieHTTPOnly bool

	// CookieSameSite sets the SameSite attribute (e.g. "Lax", "Strict", "None")
	CookieSameSite string

	// SuccessRedirect is the default redirect after successful auth
	SuccessRedirect string

	// ErrorRedirect is the redirect for auth errors
	ErrorRedirect string

	// ErrorHandler handles errors (optional)
	ErrorHandler func(ctx router.Context, err error) error
}

// NewHTTPController creates a new federated auth HTTP controller.
func NewHTTPController(auth *FederatedAuthenticator, cfg HTTPConfig) *HTTPController {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/auth/federated"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "user"
	}
	if cfg.HandshakeCookieName == "" {
		cfg.HandshakeCookieName = "federated_handshake"
	}
	if cfg.CookieSameSite == "" {
		cfg.CookieSameSite = "Lax"
	}
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/"
	}
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/login?error=auth_failed"
	}

	return &HTTPController{
		authenticator: auth,
		config:        cfg,
	}
}

// RegisterRoutes registers federated auth routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/providers", c.ListProviders)
	group.Get("/:provider/callback", c.Callback)
	group.Get("/:provider", c.BeginAuth)
}

// ListProviders returns available upstream providers.
func (c *HTTPController) ListProviders(ctx router.Context) error {
	providers := c.authenticator.ListProviders()
	return ctx.JSON(router.StatusOK, map[string]any{
		"providers": providers,
	})
}

// BeginAuth starts the OAuth flow.
func (c *HTTPController) BeginAuth(ctx router.Context) error {
	providerName := ctx.Param("provider")

	redirectURL := ctx.Query("redirect_url")
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}

	redirect, err := c.authenticator.Begin(ctx.Context(), providerName, WithRedirectURL(redirectURL))
	if err != nil {
		return c.handleError(ctx, err)
	}

	// Park the handshake token on the browser too, so only the client that
	// started the flow can finish it.
	ctx.Cookie(&router.Cookie{
		Name:     c.config.HandshakeCookieName,
		Value:    redirect.State,
		Path:     "/",
		Expires:  time.Now().Add(c.authenticator.HandshakeTTL()),
		Secure:   c.config.CookieSecure,
		HTTPOnly: true,
		SameSite: c.config.CookieSameSite,
	})

	return ctx.Redirect(redirect.URL, http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback.
func (c *HTTPController) Callback(ctx router.Context) error {
	providerName := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if errCode := ctx.Query("error"); errCode != "" {
		errDesc := ctx.Query("error_description")
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "oauth_error", errCode)
		if errDesc != "" {
			redirectURL = appendQueryParam(redirectURL, "desc", errDesc)
		}
		return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
	}

	if code == "" || state == "" {
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "error", "missing_params")
		return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
	}

	// The callback must come from the browser that started the flow: the
	// handshake cookie parked at begin has to match the echoed state.
	if ctx.Cookies(c.config.HandshakeCookieName) != state {
		return c.handleError(ctx, handshake.ErrHandshakeExpired)
	}

	result, err := c.authenticator.Complete(ctx.Context(), providerName, code, state)
	if err != nil {
		return c.handleError(ctx, err)
	}

	c.clearHandshakeCookie(ctx)
	c.setAuthCookie(ctx, result.Token)

	redirectURL := result.RedirectURL
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}

	if result.IsNewUser {
		redirectURL = appendQueryParam(redirectURL, "new_user", "true")
	}

	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

func (c *HTTPController) clearHandshakeCookie(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     c.config.HandshakeCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   c.config.CookieSecure,
		HTTPOnly: true,
		SameSite: c.config.CookieSameSite,
	})
}

func (c *HTTPController) setAuthCookie(ctx router.Context, token string) {
	ctx.Cookie(&router.Cookie{
		Name:     c.config.CookieName,
		Value:    token,
		Path:     "/",
		Secure:   c.config.CookieSecure,
		HTTPOnly: c.config.CookieHTTPOnly,
		SameSite: c.config.CookieSameSite,
	})
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if c.config.ErrorHandler != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	redirectURL := appendQueryParam(c.config.ErrorRedirect, "error", err.Error())
	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

func appendQueryParam(rawURL, key, value string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	query.Set(key, value)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
