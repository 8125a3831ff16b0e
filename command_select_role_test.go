package identity_test

import (
	"context"
	"testing"

	identity "github.com/fleetpass/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRoleMessageValidate(t *testing.T) {
	valid := identity.SelectRoleMessage{
		UserID: uuid.NewString(),
		Role:   "operator",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		msg  identity.SelectRoleMessage
	}{
		{"missing user id", identity.SelectRoleMessage{Role: "user"}},
		{"missing role", identity.SelectRoleMessage{UserID: uuid.NewString()}},
		{"not a uuid", identity.SelectRoleMessage{UserID: "user-1", Role: "user"}},
		{"unassigned not selectable", identity.SelectRoleMessage{UserID: uuid.NewString(), Role: "unassigned"}},
		{"unknown role", identity.SelectRoleMessage{UserID: uuid.NewString(), Role: "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.msg.Validate())
		})
	}
}

func TestSelectRoleHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns the requested role", func(t *testing.T) {
		userID := uuid.New()
		user := &identity.User{ID: userID, Email: "sel@example.com", Role: identity.RoleUnassigned}

		store := &stubUsers{
			getByIdentifier: func(_ context.Context, identifier string) (*identity.User, error) {
				assert.Equal(t, userID.String(), identifier)
				return user, nil
			},
			assignRole: func(_ context.Context, id uuid.UUID, role identity.Role) (*identity.User, error) {
				return &identity.User{ID: id, Email: user.Email, Role: role, RoleSelected: true}, nil
			},
		}

		handler := identity.NewSelectRoleHandler(&stubRepoManager{users: store})

		updated, err := handler.SelectRole(ctx, identity.SelectRoleMessage{
			UserID: userID.String(),
			Role:   "partner",
			Actor:  identity.ActorRef{ID: userID.String(), Type: "user"},
		})

		require.NoError(t, err)
		assert.Equal(t, identity.RolePartner, updated.Role)
		assert.True(t, updated.RoleSelected)
	})

	t.Run("second selection of a different role fails", func(t *testing.T) {
		userID := uuid.New()
		user := &identity.User{ID: userID, Email: "sel@example.com", Role: identity.RoleUser, RoleSelected: true}

		store := &stubUsers{
			getByIdentifier: func(context.Context, string) (*identity.User, error) {
				return user, nil
			},
		}

		handler := identity.NewSelectRoleHandler(&stubRepoManager{users: store})

		_, err := handler.SelectRole(ctx, identity.SelectRoleMessage{
			UserID: userID.String(),
			Role:   "operator",
			Actor:  identity.ActorRef{ID: userID.String(), Type: "user"},
		})

		assert.ErrorIs(t, err, identity.ErrRoleAlreadyAssigned)
	})

	t.Run("re-selecting the held role succeeds", func(t *testing.T) {
		userID := uuid.New()
		user := &identity.User{ID: userID, Email: "sel@example.com", Role: identity.RoleUser, RoleSelected: true}

		store := &stubUsers{
			getByIdentifier: func(context.Context, string) (*identity.User, error) {
				return user, nil
			},
		}

		handler := identity.NewSelectRoleHandler(&stubRepoManager{users: store})

		updated, err := handler.SelectRole(ctx, identity.SelectRoleMessage{
			UserID: userID.String(),
			Role:   "user",
			Actor:  identity.ActorRef{ID: userID.String(), Type: "user"},
		})

		require.NoError(t, err)
		assert.Equal(t, identity.RoleUser, updated.Role)
	})

	t.Run("invalid payload never reaches the store", func(t *testing.T) {
		handler := identity.NewSelectRoleHandler(&stubRepoManager{users: &stubUsers{}})

		_, err := handler.SelectRole(ctx, identity.SelectRoleMessage{
			UserID: "not-a-uuid",
			Role:   "user",
		})

		assert.Error(t, err)
	})
}
