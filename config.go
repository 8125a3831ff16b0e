package identity

import (
	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
)

// EnvConfig implements Config from environment variables.
type EnvConfig struct {
	SigningKey      string   `env:"AUTH_SIGNING_KEY"`
	SigningMethod   string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	TokenExpiration int      `env:"AUTH_TOKEN_EXPIRATION" envDefault:"24"`
	TokenLookup     string   `env:"AUTH_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme      string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Issuer          string   `env:"AUTH_ISSUER"`
	Audience        []string `env:"AUTH_AUDIENCE" envSeparator:","`
}

// NewEnvConfig loads configuration from environment variables.
func NewEnvConfig() (*EnvConfig, error) {
	cfg, err := env.ParseAs[EnvConfig]()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required values are present.
func (c EnvConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.SigningMethod, validation.Required, validation.In("HS256", "HS384", "HS512")),
		validation.Field(&c.TokenExpiration, validation.Min(1)),
	)
}

func (c EnvConfig) GetSigningKey() string    { return c.SigningKey }
func (c EnvConfig) GetSigningMethod() string { return c.SigningMethod }
func (c EnvConfig) GetContextKey() string    { return c.ContextKey }
func (c EnvConfig) GetTokenExpiration() int  { return c.TokenExpiration }
func (c EnvConfig) GetTokenLookup() string   { return c.TokenLookup }
func (c EnvConfig) GetAuthScheme() string    { return c.AuthScheme }
func (c EnvConfig) GetIssuer() string        { return c.Issuer }
func (c EnvConfig) GetAudience() []string    { return c.Audience }

var _ Config = (*EnvConfig)(nil)
