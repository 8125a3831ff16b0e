package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims for an authenticated identity
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	RoleSelected() bool
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID          string `json:"uid,omitempty"`
	UserEmail    string `json:"email,omitempty"`
	UserRole     string `json:"role,omitempty"`
	RoleIsChosen bool   `json:"role_selected"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Role returns the role claim
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// RoleSelected reports whether the subject completed role selection.
// Clients use this as the redirect decision after login.
func (c *JWTClaims) RoleSelected() bool {
	return c.RoleIsChosen
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
