package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. Every record carries at least one authentication
// method: a password hash, an external federated id, or both once linked.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash,nullzero" json:"password_hash,omitempty"`
	ExternalID    string     `bun:"external_id,nullzero,unique" json:"external_id,omitempty"`
	Role          Role       `bun:"user_role,notnull,default:'unassigned'" json:"user_role,omitempty"`
	RoleSelected  bool       `bun:"role_selected,notnull,default:false" json:"role_selected"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasPassword reports whether the account can authenticate locally.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// HasExternalID reports whether the account is linked to a federated provider.
func (u *User) HasExternalID() bool {
	return u != nil && u.ExternalID != ""
}

// SetRole updates the role and keeps role_selected consistent with it.
// role_selected must be true exactly when the role is not unassigned.
func (u *User) SetRole(role Role) *User {
	u.Role = role
	u.RoleSelected = role.Selected()
	return u
}

// UserIdentity adapts a User into the Identity interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// Name returns the user's display name.
func (u UserIdentity) Name() string {
	if u.user == nil {
		return ""
	}
	return u.user.Name
}

// Role returns the user's role as a string.
func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return string(u.user.Role)
}

// RoleSelected reports whether the user completed role selection.
func (u UserIdentity) RoleSelected() bool {
	if u.user == nil {
		return false
	}
	return u.user.RoleSelected
}
