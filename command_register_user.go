package identity

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate rejects malformed input before it reaches the store.
func (e RegisterUserMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(
			&e.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&e.Password,
			validation.Required,
			validation.Length(8, 128),
		),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if e.Phone != "" {
		if _, perr := phonenumbers.Parse(e.Phone, "US"); perr != nil {
			return goerrors.New("invalid phone number", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"phone": e.Phone})
		}
	}

	return nil
}

// RegisterUserHandler creates local accounts: password hash set, no external
// id, role unassigned until the user completes role selection.
type RegisterUserHandler struct {
	repo RepositoryManager
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	_, err := h.RegisterUser(ctx, event)
	return err
}

// RegisterUser runs the registration transaction and returns the new user.
func (h *RegisterUserHandler) RegisterUser(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.register(ctx, event)
	}
}

func (h *RegisterUserHandler) register(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		user.Name = getDisplayName(event.Name, event.Email)
		user.Role = RoleUnassigned
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		if goerrors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrUpstreamTimeout
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}

var _ AccountRegistrerer = (*RegisterUserHandler)(nil)

func getDisplayName(name, email string) string {
	if name != "" {
		return name
	}

	if strings.Contains(email, "@") {
		name = strings.Split(email, "@")[0]
	}

	return name
}
