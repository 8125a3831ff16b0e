package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ActorRef identifies who/what triggered a role selection.
type ActorRef struct {
	ID   string
	Type string
}

// RoleSelection captures the context of a single selection attempt.
type RoleSelection struct {
	Actor ActorRef
	User  *User
	From  Role
	To    Role
	At    time.Time
}

// RoleSelectHook is executed around a selection. Before-hooks can veto the
// transition by returning an error; after-hooks run best effort.
type RoleSelectHook func(ctx context.Context, sel RoleSelection) error

// RoleStateMachine governs the one-way transition from unassigned to an
// assigned role. There is no transition back: first assignment is terminal.
type RoleStateMachine interface {
	SelectRole(ctx context.Context, actor ActorRef, user *User, target Role) (*User, error)
	CurrentRole(user *User) Role
}

// RoleMachineOption customizes state machine construction.
type RoleMachineOption func(*roleStateMachine)

// WithRoleMachineClock injects a custom clock (useful for tests).
func WithRoleMachineClock(clock func() time.Time) RoleMachineOption {
	return func(sm *roleStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithRoleMachineLogger overrides the logger.
func WithRoleMachineLogger(logger Logger) RoleMachineOption {
	return func(sm *roleStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithBeforeSelect registers a hook that runs before persistence and can veto.
func WithBeforeSelect(hooks ...RoleSelectHook) RoleMachineOption {
	return func(sm *roleStateMachine) {
		sm.beforeHooks = append(sm.beforeHooks, hooks...)
	}
}

// WithAfterSelect registers a hook that runs after a successful selection.
func WithAfterSelect(hooks ...RoleSelectHook) RoleMachineOption {
	return func(sm *roleStateMachine) {
		sm.afterHooks = append(sm.afterHooks, hooks...)
	}
}

type roleStateMachine struct {
	users       Users
	logger      Logger
	now         func() time.Time
	beforeHooks []RoleSelectHook
	afterHooks  []RoleSelectHook
}

// NewRoleStateMachine builds the state machine on top of the Users store.
func NewRoleStateMachine(users Users, opts ...RoleMachineOption) RoleStateMachine {
	sm := &roleStateMachine{
		users:  users,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

func (sm *roleStateMachine) CurrentRole(user *User) Role {
	if user == nil {
		return RoleUnassigned
	}
	if user.Role == "" {
		return RoleUnassigned
	}
	return user.Role
}

// SelectRole moves the user from unassigned to the target role. Re-submitting
// the role the user already holds is a no-op success; any other role on an
// assigned identity fails with ErrRoleAlreadyAssigned. The store's
// conditional update arbitrates concurrent selections.
func (sm *roleStateMachine) SelectRole(ctx context.Context, actor ActorRef, user *User, target Role) (*User, error) {
	if user == nil {
		return nil, goerrors.New("user is required for role selection", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	if !target.IsAssignable() {
		return nil, goerrors.New("role is not assignable", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": string(target)})
	}

	from := sm.CurrentRole(user)
	if from.Selected() {
		if from == target {
			return user, nil
		}
		return nil, ErrRoleAlreadyAssigned
	}

	sel := RoleSelection{
		Actor: actor,
		User:  user,
		From:  from,
		To:    target,
		At:    sm.now(),
	}

	for _, hook := range sm.beforeHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, sel); err != nil {
			return nil, err
		}
	}

	updated, err := sm.users.AssignRole(ctx, user.ID, target)
	if err != nil {
		if goerrors.Is(err, ErrRoleAlreadyAssigned) {
			// Lost a race or stale input: re-read to see if the winner
			// assigned the same role, which still counts as success.
			fresh, ferr := sm.users.GetByEmail(ctx, user.Email)
			if ferr == nil && fresh.Role == target {
				return fresh, nil
			}
			return nil, ErrRoleAlreadyAssigned
		}
		return nil, err
	}

	for _, hook := range sm.afterHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, sel); err != nil {
			sm.logger.Warn("role selection after-hook error", "error", err)
		}
	}

	return updated, nil
}
