package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SelectRoleMessage struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Actor  ActorRef
}

func (e SelectRoleMessage) Type() string { return "user.select_role" }

func (e SelectRoleMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(
			&e.UserID,
			validation.Required,
			is_uuid,
		),
		validation.Field(
			&e.Role,
			validation.Required,
			validation.In(string(RoleUser), string(RoleOperator), string(RolePartner)),
		),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid role selection payload").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

var is_uuid = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := uuid.Parse(s)
	return err
})

// SelectRoleHandler drives the role state machine inside a transaction.
type SelectRoleHandler struct {
	repo    RepositoryManager
	machine RoleStateMachine
}

func NewSelectRoleHandler(repo RepositoryManager, opts ...RoleMachineOption) *SelectRoleHandler {
	return &SelectRoleHandler{
		repo:    repo,
		machine: NewRoleStateMachine(repo.Users(), opts...),
	}
}

func (h *SelectRoleHandler) Execute(ctx context.Context, event SelectRoleMessage) error {
	_, err := h.SelectRole(ctx, event)
	return err
}

// SelectRole assigns the requested role and returns the updated user.
func (h *SelectRoleHandler) SelectRole(ctx context.Context, event SelectRoleMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(event.UserID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid user id").
			WithCode(goerrors.CodeBadRequest)
	}

	role, _ := ParseRole(event.Role)

	var updated *User
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifier(ctx, id.String())
		if err != nil {
			return err
		}

		updated, err = h.machine.SelectRole(ctx, event.Actor, user, role)
		return err
	})

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrUpstreamTimeout
		}
		return nil, err
	}

	return updated, nil
}
