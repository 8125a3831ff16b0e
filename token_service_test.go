package identity_test

import (
	"testing"
	"time"

	identity "github.com/fleetpass/go-identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService(t *testing.T) {
	signingKey := []byte("test-signing-key")
	tokenExpiration := 24
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	t.Run("creates token service with logger", func(t *testing.T) {
		logger := &MockLogger{}

		service := identity.NewTokenService(signingKey, tokenExpiration, issuer, audience, logger)

		assert.NotNil(t, service)
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		service := identity.NewTokenService(signingKey, tokenExpiration, issuer, audience, nil)

		assert.NotNil(t, service)
	})
}

func TestTokenService_Generate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	tokenExpiration := 24
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := identity.NewTokenService(signingKey, tokenExpiration, issuer, audience, nil)

	t.Run("generates valid JWT token", func(t *testing.T) {
		id := &MockIdentity{}
		id.On("ID").Return("user-123")
		id.On("Email").Return("person@example.com")
		id.On("Role").Return("operator")
		id.On("RoleSelected").Return(true)

		tokenString, err := service.Generate(id)

		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		token, err := jwt.ParseWithClaims(tokenString, &identity.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})

		assert.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(*identity.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, "user-123", claims.Subject())
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, "person@example.com", claims.Email())
		assert.Equal(t, "operator", claims.Role())
		assert.True(t, claims.RoleSelected())
		assert.Equal(t, issuer, claims.Issuer)
		assert.Equal(t, audience, claims.Audience)
		assert.NotEmpty(t, claims.ID, "token must carry a jti")
		assert.NotNil(t, claims.RegisteredClaims.IssuedAt)
		assert.NotNil(t, claims.RegisteredClaims.ExpiresAt)

		id.AssertExpectations(t)
	})

	t.Run("role selection pending surfaces in the token", func(t *testing.T) {
		id := &MockIdentity{}
		id.On("ID").Return("user-456")
		id.On("Email").Return("new@example.com")
		id.On("Role").Return("unassigned")
		id.On("RoleSelected").Return(false)

		tokenString, err := service.Generate(id)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "unassigned", claims.Role())
		assert.False(t, claims.RoleSelected())
	})

	t.Run("expiration honors configured hours", func(t *testing.T) {
		id := &MockIdentity{}
		id.On("ID").Return("user-789")
		id.On("Email").Return("x@example.com")
		id.On("Role").Return("user")
		id.On("RoleSelected").Return(true)

		tokenString, err := service.Generate(id)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)

		expected := time.Now().Add(time.Duration(tokenExpiration) * time.Hour)
		assert.WithinDuration(t, expected, claims.Expires(), time.Minute)
	})
}

func TestTokenService_SignClaims(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := identity.NewTokenService(signingKey, 24, "", nil, nil)

	t.Run("signs provided claims", func(t *testing.T) {
		claims := &identity.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UID:       "user-1",
			UserEmail: "sign@example.com",
			UserRole:  "partner",
		}

		tokenString, err := service.SignClaims(claims)
		require.NoError(t, err)

		parsed, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "partner", parsed.Role())
		assert.Equal(t, "sign@example.com", parsed.Email())
	})

	t.Run("rejects nil claims", func(t *testing.T) {
		_, err := service.SignClaims(nil)
		assert.Error(t, err)
	})
}

func TestTokenService_Validate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := identity.NewTokenService(signingKey, 1, "test-issuer", jwt.ClaimStrings{"test-audience"}, nil)

	makeIdentity := func() *MockIdentity {
		id := &MockIdentity{}
		id.On("ID").Return("user-123")
		id.On("Email").Return("person@example.com")
		id.On("Role").Return("user")
		id.On("RoleSelected").Return(true)
		return id
	}

	t.Run("validates its own tokens", func(t *testing.T) {
		tokenString, err := service.Generate(makeIdentity())
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
		assert.True(t, claims.HasRole("user"))
		assert.False(t, claims.HasRole("operator"))
	})

	t.Run("rejects expired tokens with the expiry error", func(t *testing.T) {
		claims := &identity.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Audience:  jwt.ClaimStrings{"test-audience"},
				Subject:   "user-123",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}

		tokenString, err := service.SignClaims(claims)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.ErrorIs(t, err, identity.ErrTokenExpired)
		assert.True(t, identity.IsTokenExpiredError(err))
	})

	t.Run("rejects garbage tokens as malformed", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})

	t.Run("rejects tokens signed with a different key", func(t *testing.T) {
		other := identity.NewTokenService([]byte("completely-different-key"), 1, "test-issuer", jwt.ClaimStrings{"test-audience"}, nil)

		tokenString, err := other.Generate(makeIdentity())
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})

	t.Run("rejects tokens signed with a non HMAC method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "user-123",
			"iss": "test-issuer",
			"aud": "test-audience",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})

	t.Run("rejects tokens from the wrong issuer", func(t *testing.T) {
		other := identity.NewTokenService(signingKey, 1, "other-issuer", jwt.ClaimStrings{"test-audience"}, nil)

		tokenString, err := other.Generate(makeIdentity())
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})
}
