package federated

import (
	"context"

	identity "github.com/fleetpass/go-identity"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Resolution reports how a profile mapped to a local account.
type Resolution struct {
	User      *identity.User
	IsNewUser bool
	Linked    bool
}

// Resolver maps upstream profiles to local accounts. Resolution order:
// external id match, then verified email match (attaching the external id),
// then account creation. Concurrent flows for the same subject are settled by
// the store's unique indexes: losers re-run the lookup instead of failing.
type Resolver struct {
	users  identity.Users
	logger identity.Logger

	// OnUserCreated runs after a fresh account is provisioned, best effort.
	OnUserCreated func(ctx context.Context, user *identity.User, profile *Profile) error
}

// ResolverOption customizes resolver construction.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(logger identity.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithOnUserCreated registers a hook for freshly provisioned accounts.
func WithOnUserCreated(hook func(ctx context.Context, user *identity.User, profile *Profile) error) ResolverOption {
	return func(r *Resolver) {
		r.OnUserCreated = hook
	}
}

// NewResolver creates a profile resolver over the users repository.
func NewResolver(users identity.Users, opts ...ResolverOption) *Resolver {
	r := &Resolver{users: users}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve finds or provisions the local account for an upstream profile.
func (r *Resolver) Resolve(ctx context.Context, profile *Profile) (*Resolution, error) {
	if profile == nil {
		return nil, ErrProfileFailed
	}

	if profile.ExternalID() == "" || profile.Email == "" || !profile.EmailVerified {
		return nil, ErrProfileIncomplete
	}

	// two passes: a conflict on link or create means another flow for the
	// same subject won the race, so the second lookup must succeed
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		res, err := r.resolveOnce(ctx, profile)
		if err == nil {
			return res, nil
		}
		if !goerrors.IsCategory(err, goerrors.CategoryConflict) && !identity.IsUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (r *Resolver) resolveOnce(ctx context.Context, profile *Profile) (*Resolution, error) {
	externalID := profile.ExternalID()

	user, err := r.users.GetByExternalID(ctx, externalID)
	if err == nil {
		return &Resolution{User: user}, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	user, err = r.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		linked, err := r.users.AttachExternalID(ctx, user.ID, externalID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// account holds a different external id already
				return nil, goerrors.New("account already linked to another identity", goerrors.CategoryConflict).
					WithCode(goerrors.CodeConflict)
			}
			return nil, err
		}
		return &Resolution{User: linked, Linked: true}, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	created, err := r.users.Create(ctx, &identity.User{
		Email:      profile.Email,
		Name:       profile.Name,
		ExternalID: externalID,
	})
	if err != nil {
		return nil, err
	}

	if r.OnUserCreated != nil {
		if err := r.OnUserCreated(ctx, created, profile); err != nil && r.logger != nil {
			r.logger.Warn("user created hook failed", "error", err)
		}
	}

	return &Resolution{User: created, IsNewUser: true}, nil
}
