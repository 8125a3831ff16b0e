package identity_test

import (
	"errors"
	"fmt"
	"testing"

	identity "github.com/fleetpass/go-identity"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, identity.IsAuthFailure(identity.ErrBadCredentials))
	assert.True(t, identity.IsAuthFailure(identity.ErrNoSuchAccount))
	assert.True(t, identity.IsAuthFailure(identity.ErrNoPasswordSet))
	assert.True(t, identity.IsAuthFailure(identity.ErrMismatchedHashAndPassword))

	assert.False(t, identity.IsAuthFailure(nil))
	assert.False(t, identity.IsAuthFailure(identity.ErrEmailExists))
	assert.False(t, identity.IsAuthFailure(errors.New("unrelated")))
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, identity.IsTokenExpiredError(identity.ErrTokenExpired))
	assert.True(t, identity.IsTokenExpiredError(errors.New("token is expired by 2h")))

	assert.False(t, identity.IsTokenExpiredError(nil))
	assert.False(t, identity.IsTokenExpiredError(identity.ErrTokenMalformed))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, identity.IsMalformedError(identity.ErrTokenMalformed))
	assert.True(t, identity.IsMalformedError(errors.New("token is malformed: bad segments")))
	assert.True(t, identity.IsMalformedError(errors.New("missing or malformed JWT")))

	assert.False(t, identity.IsMalformedError(nil))
	assert.False(t, identity.IsMalformedError(identity.ErrTokenExpired))
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		err      *goerrors.Error
		category goerrors.Category
		code     int
	}{
		{identity.ErrBadCredentials, goerrors.CategoryAuth, goerrors.CodeUnauthorized},
		{identity.ErrEmailExists, goerrors.CategoryConflict, goerrors.CodeConflict},
		{identity.ErrTokenMissing, goerrors.CategoryAuth, goerrors.CodeUnauthorized},
		{identity.ErrRoleAlreadyAssigned, goerrors.CategoryConflict, goerrors.CodeConflict},
		{identity.ErrForbidden, goerrors.CategoryAuthz, goerrors.CodeForbidden},
		{identity.ErrUpstreamTimeout, goerrors.CategoryOperation, goerrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.TextCode, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.TextCode)
		})
	}
}

func TestWrappedSentinelsStayDetectable(t *testing.T) {
	wrapped := fmt.Errorf("login flow: %w", identity.ErrBadCredentials)

	assert.True(t, identity.IsAuthFailure(wrapped))
	assert.ErrorIs(t, wrapped, identity.ErrBadCredentials)
}
