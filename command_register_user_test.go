package identity_test

import (
	"context"
	"testing"

	identity "github.com/fleetpass/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserMessageValidate(t *testing.T) {
	valid := identity.RegisterUserMessage{
		Name:     "Person",
		Email:    "person@example.com",
		Password: "password123",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		msg  identity.RegisterUserMessage
	}{
		{"missing email", identity.RegisterUserMessage{Password: "password123"}},
		{"bad email", identity.RegisterUserMessage{Email: "not-an-email", Password: "password123"}},
		{"missing password", identity.RegisterUserMessage{Email: "person@example.com"}},
		{"short password", identity.RegisterUserMessage{Email: "person@example.com", Password: "short"}},
		{"bad phone", identity.RegisterUserMessage{Email: "person@example.com", Password: "password123", Phone: "not-a-phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.msg.Validate())
		})
	}

	t.Run("valid phone accepted", func(t *testing.T) {
		msg := identity.RegisterUserMessage{
			Email:    "person@example.com",
			Password: "password123",
			Phone:    "+1 415 555 0100",
		}
		assert.NoError(t, msg.Validate())
	})
}

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a local account", func(t *testing.T) {
		var stored *identity.User

		store := &stubUsers{
			registerTx: func(_ context.Context, user *identity.User) (*identity.User, error) {
				stored = user
				return user, nil
			},
		}

		handler := identity.NewRegisterUserHandler(&stubRepoManager{users: store})

		user, err := handler.RegisterUser(ctx, identity.RegisterUserMessage{
			Name:     "Person",
			Email:    "person@example.com",
			Password: "password123",
		})

		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "person@example.com", user.Email)
		assert.Equal(t, "Person", user.Name)
		assert.Equal(t, identity.RoleUnassigned, user.Role)
		assert.False(t, user.RoleSelected)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NoError(t, identity.ComparePasswordAndHash("password123", user.PasswordHash))
	})

	t.Run("derives display name from email", func(t *testing.T) {
		store := &stubUsers{
			registerTx: func(_ context.Context, user *identity.User) (*identity.User, error) {
				return user, nil
			},
		}

		handler := identity.NewRegisterUserHandler(&stubRepoManager{users: store})

		user, err := handler.RegisterUser(ctx, identity.RegisterUserMessage{
			Email:    "displayname@example.com",
			Password: "password123",
		})

		require.NoError(t, err)
		assert.Equal(t, "displayname", user.Name)
	})

	t.Run("duplicate email surfaces as email exists", func(t *testing.T) {
		store := &stubUsers{
			registerTx: func(context.Context, *identity.User) (*identity.User, error) {
				return nil, identity.ErrEmailExists
			},
		}

		handler := identity.NewRegisterUserHandler(&stubRepoManager{users: store})

		_, err := handler.RegisterUser(ctx, identity.RegisterUserMessage{
			Email:    "dup@example.com",
			Password: "password123",
		})

		assert.ErrorIs(t, err, identity.ErrEmailExists)
	})

	t.Run("invalid payload never reaches the store", func(t *testing.T) {
		handler := identity.NewRegisterUserHandler(&stubRepoManager{users: &stubUsers{}})

		_, err := handler.RegisterUser(ctx, identity.RegisterUserMessage{
			Email:    "person@example.com",
			Password: "short",
		})

		assert.Error(t, err)
	})

	t.Run("cancelled context is rejected", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		handler := identity.NewRegisterUserHandler(&stubRepoManager{users: &stubUsers{}})

		_, err := handler.RegisterUser(cancelled, identity.RegisterUserMessage{
			Email:    "person@example.com",
			Password: "password123",
		})

		assert.Error(t, err)
	})
}
