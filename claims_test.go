package identity_test

import (
	"testing"
	"time"

	identity "github.com/fleetpass/go-identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaimsUserID(t *testing.T) {
	t.Run("prefers uid claim", func(t *testing.T) {
		claims := &identity.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-value"},
			UID:              "uid-value",
		}
		assert.Equal(t, "uid-value", claims.UserID())
	})

	t.Run("falls back to subject", func(t *testing.T) {
		claims := &identity.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-value"},
		}
		assert.Equal(t, "sub-value", claims.UserID())
	})
}

func TestJWTClaimsHasRole(t *testing.T) {
	claims := &identity.JWTClaims{UserRole: "operator"}

	assert.True(t, claims.HasRole("operator"))
	assert.False(t, claims.HasRole("user"))
	assert.False(t, claims.HasRole(""))
}

func TestJWTClaimsRoleSelected(t *testing.T) {
	selected := &identity.JWTClaims{UserRole: "user", RoleIsChosen: true}
	pending := &identity.JWTClaims{UserRole: "unassigned"}

	assert.True(t, selected.RoleSelected())
	assert.False(t, pending.RoleSelected())
}

func TestJWTClaimsTimestamps(t *testing.T) {
	t.Run("returns stored times", func(t *testing.T) {
		issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		expires := issued.Add(24 * time.Hour)

		claims := &identity.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(issued),
				ExpiresAt: jwt.NewNumericDate(expires),
			},
		}

		assert.Equal(t, issued, claims.IssuedAt().UTC())
		assert.Equal(t, expires, claims.Expires().UTC())
	})

	t.Run("zero value when claims missing", func(t *testing.T) {
		claims := &identity.JWTClaims{}

		assert.True(t, claims.IssuedAt().IsZero())
		assert.True(t, claims.Expires().IsZero())
	})
}
