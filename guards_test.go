package identity_test

import (
	"testing"

	identity "github.com/fleetpass/go-identity"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func claimsFor(role string) *identity.JWTClaims {
	return &identity.JWTClaims{
		UID:          "user-1",
		UserRole:     role,
		RoleIsChosen: role != "unassigned",
	}
}

func TestRequireRole(t *testing.T) {
	t.Run("passes matching role through", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = claimsFor("operator")

		nextCalled := false
		handler := identity.RequireOperator()(func(c router.Context) error {
			nextCalled = true
			return nil
		})

		err := handler(ctx)
		require.NoError(t, err)
		assert.True(t, nextCalled)
	})

	t.Run("missing claims yields unauthorized", func(t *testing.T) {
		ctx := router.NewMockContext()

		var status int
		ctx.On("JSON", mock.AnythingOfType("int"), mock.Anything).Run(func(args mock.Arguments) {
			status = args.Int(0)
		}).Return(nil)

		handler := identity.RequireUser()(func(c router.Context) error {
			t.Fatal("handler must not run without claims")
			return nil
		})

		err := handler(ctx)
		require.NoError(t, err)
		assert.Equal(t, router.StatusUnauthorized, status)
	})

	t.Run("wrong role yields forbidden", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = claimsFor("user")

		var status int
		ctx.On("JSON", mock.AnythingOfType("int"), mock.Anything).Run(func(args mock.Arguments) {
			status = args.Int(0)
		}).Return(nil)

		handler := identity.RequirePartner()(func(c router.Context) error {
			t.Fatal("handler must not run for the wrong role")
			return nil
		})

		err := handler(ctx)
		require.NoError(t, err)
		assert.Equal(t, router.StatusForbidden, status)
	})

	t.Run("unassigned role cannot pass any guard", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = claimsFor("unassigned")

		var status int
		ctx.On("JSON", mock.AnythingOfType("int"), mock.Anything).Run(func(args mock.Arguments) {
			status = args.Int(0)
		}).Return(nil)

		handler := identity.RequireUser()(func(c router.Context) error {
			t.Fatal("handler must not run before role selection")
			return nil
		})

		err := handler(ctx)
		require.NoError(t, err)
		assert.Equal(t, router.StatusForbidden, status)
	})

	t.Run("custom context key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["claims"] = claimsFor("user")

		nextCalled := false
		handler := identity.RequireUser(identity.WithGuardContextKey("claims"))(func(c router.Context) error {
			nextCalled = true
			return nil
		})

		err := handler(ctx)
		require.NoError(t, err)
		assert.True(t, nextCalled)
	})

	t.Run("custom error handler", func(t *testing.T) {
		ctx := router.NewMockContext()

		var seen error
		handler := identity.RequireUser(identity.WithGuardErrorHandler(func(c router.Context, err error) error {
			seen = err
			return nil
		}))(func(c router.Context) error {
			return nil
		})

		err := handler(ctx)
		require.NoError(t, err)
		assert.ErrorIs(t, seen, identity.ErrTokenMissing)
	})
}
