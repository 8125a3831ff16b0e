package federated

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"

	identity "github.com/fleetpass/go-identity"
	"github.com/fleetpass/go-identity/handshake"
	goerrors "github.com/goliatone/go-errors"
)

// FederatedAuthenticator orchestrates upstream OAuth login flows. Round-trip
// state lives in the handshake store, so the callback can land on any
// instance in the fleet.
type FederatedAuthenticator struct {
	providers map[string]Provider
	store     handshake.Store
	resolver  *Resolver
	auther    identity.Authenticator
	logger    identity.Logger
	config    FederatedConfig
}

// FederatedConfig configures the federated authenticator.
type FederatedConfig struct {
	DefaultRedirectURL string
	HandshakeTTL       time.Duration
	// ExchangeTimeout caps the upstream exchange plus profile fetch.
	ExchangeTimeout time.Duration
}

// FederatedOption configures the federated authenticator.
type FederatedOption func(*FederatedAuthenticator)

// WithProvider registers an upstream provider.
func WithProvider(provider Provider) FederatedOption {
	return func(fa *FederatedAuthenticator) {
		if provider == nil {
			return
		}
		fa.providers[provider.Name()] = provider
	}
}

// WithLogger sets the authenticator logger.
func WithLogger(logger identity.Logger) FederatedOption {
	return func(fa *FederatedAuthenticator) {
		fa.logger = logger
	}
}

// WithResolver sets a custom profile resolver.
func WithResolver(resolver *Resolver) FederatedOption {
	return func(fa *FederatedAuthenticator) {
		fa.resolver = resolver
	}
}

// NewFederatedAuthenticator creates a federated authenticator.
func NewFederatedAuthenticator(
	store handshake.Store,
	users identity.Users,
	auther identity.Authenticator,
	config FederatedConfig,
	opts ...FederatedOption,
) *FederatedAuthenticator {
	cfg := config
	if cfg.HandshakeTTL == 0 {
		cfg.HandshakeTTL = handshake.DefaultTTL
	}
	if cfg.ExchangeTimeout == 0 {
		cfg.ExchangeTimeout = 10 * time.Second
	}

	fa := &FederatedAuthenticator{
		providers: make(map[string]Provider),
		store:     store,
		auther:    auther,
		config:    cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(fa)
		}
	}

	if fa.resolver == nil {
		fa.resolver = NewResolver(users)
	}

	return fa
}

// AuthRedirect contains the authorization URL for redirecting users.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// AuthResult contains the result of a completed flow.
type AuthResult struct {
	User        identity.Identity
	Token       string
	IsNewUser   bool
	Provider    string
	Profile     *Profile
	RedirectURL string
}

// BeginAuthOption configures flow initiation.
type BeginAuthOption func(*beginAuthConfig)

type beginAuthConfig struct {
	redirectURL string
}

// WithRedirectURL sets the post-auth redirect URL.
func WithRedirectURL(url string) BeginAuthOption {
	return func(c *beginAuthConfig) {
		c.redirectURL = url
	}
}

// HandshakeTTL reports how long a parked handshake stays valid.
func (fa *FederatedAuthenticator) HandshakeTTL() time.Duration {
	return fa.config.HandshakeTTL
}

// Begin starts the OAuth flow for a provider. The handshake token is the
// OAuth state value upstream echoes back.
func (fa *FederatedAuthenticator) Begin(
	ctx context.Context,
	providerName string,
	opts ...BeginAuthOption,
) (*AuthRedirect, error) {
	provider, ok := fa.providers[providerName]
	if !ok {
		return nil, wrapProviderError(ErrProviderNotFound, providerName, "begin", nil)
	}

	cfg := &beginAuthConfig{
		redirectURL: fa.config.DefaultRedirectURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	hs, err := handshake.New(providerName, cfg.redirectURL, fa.config.HandshakeTTL)
	if err != nil {
		return nil, err
	}

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate code verifier").
			WithCode(goerrors.CodeInternal)
	}
	hs.CodeVerifier = codeVerifier

	if err := fa.store.Put(ctx, hs); err != nil {
		return nil, err
	}

	authURL := provider.AuthCodeURL(hs.Token, WithPKCE(computeCodeChallenge(codeVerifier), "S256"))

	return &AuthRedirect{
		URL:      authURL,
		State:    hs.Token,
		Provider: providerName,
	}, nil
}

// Complete finishes the OAuth flow after the provider callback. The handshake
// is consumed before the exchange so a token can never be replayed.
func (fa *FederatedAuthenticator) Complete(
	ctx context.Context,
	providerName string,
	code string,
	stateToken string,
) (*AuthResult, error) {
	provider, ok := fa.providers[providerName]
	if !ok {
		return nil, wrapProviderError(ErrProviderNotFound, providerName, "complete", nil)
	}

	hs, err := fa.store.Get(ctx, stateToken)
	if err != nil {
		return nil, err
	}

	if hs.Provider != providerName {
		return nil, ErrProviderMismatch
	}

	if err := fa.store.Delete(ctx, stateToken); err != nil && fa.logger != nil {
		fa.logger.Warn("failed to delete consumed handshake", "error", err)
	}

	upstreamCtx, cancel := context.WithTimeout(ctx, fa.config.ExchangeTimeout)
	defer cancel()

	token, err := provider.Exchange(upstreamCtx, code, WithCodeVerifier(hs.CodeVerifier))
	if err != nil {
		if upstreamCtx.Err() == context.DeadlineExceeded {
			return nil, identity.ErrUpstreamTimeout
		}
		return nil, wrapProviderError(ErrTokenExchangeFailed, providerName, "exchange", err)
	}

	profile, err := provider.Profile(upstreamCtx, token)
	if err != nil {
		if upstreamCtx.Err() == context.DeadlineExceeded {
			return nil, identity.ErrUpstreamTimeout
		}
		return nil, wrapProviderError(ErrProfileFailed, providerName, "profile", err)
	}

	resolution, err := fa.resolver.Resolve(ctx, profile)
	if err != nil {
		return nil, err
	}

	id := identity.NewIdentityFromUser(resolution.User)
	jwtToken, err := fa.auther.IssueFor(ctx, id)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate token").
			WithCode(goerrors.CodeInternal)
	}

	return &AuthResult{
		User:        id,
		Token:       jwtToken,
		IsNewUser:   resolution.IsNewUser,
		Provider:    providerName,
		Profile:     profile,
		RedirectURL: hs.RedirectURL,
	}, nil
}

// ListProviders returns all registered providers.
func (fa *FederatedAuthenticator) ListProviders() []ProviderInfo {
	var providers []ProviderInfo
	for name, p := range fa.providers {
		providers = append(providers, ProviderInfo{
			Name:    name,
			AuthURL: p.AuthCodeURL(""),
		})
	}
	return providers
}

// ProviderInfo describes an available provider.
type ProviderInfo struct {
	Name    string
	AuthURL string
}

func generateCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func computeCodeChallenge(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
