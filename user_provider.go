package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserFinder is the slice of the store the verifier needs
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// UserProvider verifies local email+password credentials against the
// identity store. All credential failures collapse into ErrBadCredentials
// before leaving this type; the internal distinction is only logged.
type UserProvider struct {
	store  UserFinder
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user by email, compare the password, and
// return the identity. Lookup is case-insensitive on email. Failure has no
// side effects.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			u.logger.Debug("verify identity: no account", "email", email)
			return nil, ErrBadCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !user.HasPassword() {
		// Federated-only account. Do not reveal this to the caller; it
		// would leak that the email exists.
		u.logger.Debug("verify identity: no password set", "user_id", user.ID.String())
		return nil, ErrBadCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			u.logger.Debug("verify identity: password mismatch", "user_id", user.ID.String())
			return nil, ErrBadCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "password comparison failed")
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByEmail retrieves an identity without verifying credentials
func (u *UserProvider) FindIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrNoSuchAccount
		}
		return nil, err
	}
	return NewIdentityFromUser(user), nil
}

var _ IdentityProvider = (*UserProvider)(nil)
