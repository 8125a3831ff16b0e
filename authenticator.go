package identity

import (
	"context"
	"reflect"
)

// Auther wires an IdentityProvider to the TokenService: verify credentials,
// mint a bearer token.
type Auther struct {
	provider        IdentityProvider
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies email+password and returns a signed bearer token. Any
// credential failure surfaces as ErrBadCredentials.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		if IsAuthFailure(err) {
			return "", ErrBadCredentials
		}
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrBadCredentials
	}

	return s.tokenService.Generate(identity)
}

// IssueFor mints a bearer token for an already resolved identity. Used after
// signup and after federated resolution, where no password check applies.
func (s *Auther) IssueFor(ctx context.Context, identity Identity) (string, error) {
	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return "", ErrNoSuchAccount
	}
	return s.tokenService.Generate(identity)
}

// ClaimsFromToken validates a raw bearer token and returns its claims.
func (s *Auther) ClaimsFromToken(raw string) (AuthClaims, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("ClaimsFromToken validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}

var _ Authenticator = (*Auther)(nil)
