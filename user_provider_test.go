package identity_test

import (
	"context"
	"errors"
	"testing"

	identity "github.com/fleetpass/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	passwordHash, err := identity.HashPassword("password123")
	require.NoError(t, err)

	t.Run("successful verification", func(t *testing.T) {
		store := new(MockUserFinder)
		provider := identity.NewUserProvider(store)

		userID := uuid.New()
		user := &identity.User{
			ID:           userID,
			Email:        "test@example.com",
			Name:         "Test",
			PasswordHash: passwordHash,
			Role:         identity.RoleUser,
			RoleSelected: true,
		}

		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		ident, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		require.NotNil(t, ident)
		assert.Equal(t, userID.String(), ident.ID())
		assert.Equal(t, "test@example.com", ident.Email())
		assert.Equal(t, string(identity.RoleUser), ident.Role())
		assert.True(t, ident.RoleSelected())

		store.AssertExpectations(t)
	})

	t.Run("unknown email collapses to bad credentials", func(t *testing.T) {
		store := new(MockUserFinder)
		provider := identity.NewUserProvider(store)

		store.On("GetByEmail", ctx, "nobody@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		ident, err := provider.VerifyIdentity(ctx, "nobody@example.com", "password123")

		assert.Nil(t, ident)
		assert.ErrorIs(t, err, identity.ErrBadCredentials)

		store.AssertExpectations(t)
	})

	t.Run("federated only account collapses to bad credentials", func(t *testing.T) {
		store := new(MockUserFinder)
		provider := identity.NewUserProvider(store)

		user := &identity.User{
			ID:         uuid.New(),
			Email:      "social@example.com",
			ExternalID: "google:abc123",
		}

		store.On("GetByEmail", ctx, "social@example.com").Return(user, nil).Once()

		ident, err := provider.VerifyIdentity(ctx, "social@example.com", "password123")

		assert.Nil(t, ident)
		assert.ErrorIs(t, err, identity.ErrBadCredentials)

		store.AssertExpectations(t)
	})

	t.Run("wrong password collapses to bad credentials", func(t *testing.T) {
		store := new(MockUserFinder)
		provider := identity.NewUserProvider(store)

		user := &identity.User{
			ID:           uuid.New(),
			Email:        "test@example.com",
			PasswordHash: passwordHash,
		}

		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		ident, err := provider.VerifyIdentity(ctx, "test@example.com", "wrong-password")

		assert.Nil(t, ident)
		assert.ErrorIs(t, err, identity.ErrBadCredentials)

		store.AssertExpectations(t)
	})

	t.Run("store failure is not masked", func(t *testing.T) {
		store := new(MockUserFinder)
		provider := identity.NewUserProvider(store)

		store.On("GetByEmail", ctx, "test@example.com").
			Return(nil, errors.New("connection refused")).Once()

		ident, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.Nil(t, ident)
		require.Error(t, err)
		assert.NotErrorIs(t, err, identity.ErrBadCredentials)

		store.AssertExpectations(t)
	})
}

func TestUserProviderFindIdentityByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("returns identity for existing account", func(t *testing.T) {
		store := new(MockUserFinder)
		provider := identity.NewUserProvider(store)

		user := &identity.User{
			ID:    uuid.New(),
			Email: "test@example.com",
		}
		store.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		ident, err := provider.FindIdentityByEmail(ctx, "test@example.com")
		assert.NoError(t, err)
		assert.Equal(t, "test@example.com", ident.Email())

		store.AssertExpectations(t)
	})

	t.Run("unknown email maps to no such account", func(t *testing.T) {
		store := new(MockUserFinder)
		provider := identity.NewUserProvider(store)

		store.On("GetByEmail", ctx, "nobody@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		ident, err := provider.FindIdentityByEmail(ctx, "nobody@example.com")
		assert.Nil(t, ident)
		assert.ErrorIs(t, err, identity.ErrNoSuchAccount)

		store.AssertExpectations(t)
	})
}
