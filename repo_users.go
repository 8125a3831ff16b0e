package identity

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var assignRoleSQL = `UPDATE "users" AS "usr"
SET
	"user_role" = ?,
	"role_selected" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."id" = ?
AND "usr"."user_role" = 'unassigned'
RETURNING *;`

var attachExternalIDSQL = `UPDATE "users" AS "usr"
SET
	"external_id" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."id" = ?
AND ("usr"."external_id" IS NULL OR "usr"."external_id" = ?)
RETURNING *;`

// Users is the identity store. Uniqueness of email and external id is
// enforced by the backing store's unique indexes; races resolve through
// conflict detection, not in-process locking.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	AttachExternalID(ctx context.Context, id uuid.UUID, externalID string) (*User, error)
	AttachExternalIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID, externalID string) (*User, error)

	AssignRole(ctx context.Context, id uuid.UUID, role Role) (*User, error)
	AssignRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role Role) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("LOWER(?TableAlias.email) = LOWER(?)", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

// GetByIdentifier resolves by id when the identifier parses as a UUID,
// otherwise by email.
func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	identifier = strings.TrimSpace(identifier)

	if id, err := uuid.Parse(identifier); err == nil {
		record := &User{}
		q := a.db.NewSelect().Model(record)
		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where("?TableAlias.id = ?", id.String()).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if isNoRows(err) {
				return nil, repository.NewRecordNotFound().
					WithMetadata(map[string]any{"identifier": identifier})
			}
			return nil, err
		}
		return record, nil
	}

	return a.GetByEmail(ctx, identifier)
}

func (a *users) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return a.GetByExternalIDTx(ctx, a.db, externalID)
}

func (a *users) GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.external_id = ?", externalID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"external_id": externalID})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

// RegisterTx inserts a new user. A unique-email collision comes back as
// ErrEmailExists, never as a raw storage error.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	created, err := a.CreateTx(ctx, tx, user)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return created, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) AttachExternalID(ctx context.Context, id uuid.UUID, externalID string) (*User, error) {
	return a.AttachExternalIDTx(ctx, a.db, id, externalID)
}

// AttachExternalIDTx links a federated id to an existing account in a single
// statement. Re-attaching the same id is a no-op success; attaching over a
// different existing id matches zero rows.
func (a *users) AttachExternalIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID, externalID string) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, attachExternalIDSQL, externalID, id.String(), externalID)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "external id already linked to another account")
		}
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0], nil
}

func (a *users) AssignRole(ctx context.Context, id uuid.UUID, role Role) (*User, error) {
	return a.AssignRoleTx(ctx, a.db, id, role)
}

// AssignRoleTx performs the one-shot role assignment. The WHERE clause only
// matches identities still unassigned, so concurrent selections cannot both
// win. A zero-row result means either the role was already set or no live
// record matched the id, so we re-check existence before reporting a conflict.
func (a *users) AssignRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role Role) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, assignRoleSQL, string(role), id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		record := &User{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.id = ?", id.String()).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if isNoRows(err) {
				return nil, repository.NewRecordNotFound().
					WithMetadata(map[string]any{"id": id.String()})
			}
			return nil, err
		}
		return nil, ErrRoleAlreadyAssigned
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))
	if record.Role == "" {
		record.Role = RoleUnassigned
	}
	record.RoleSelected = record.Role.Selected()
}

// IsUniqueViolation reports whether err is a unique-index conflict from the
// backing store. Matches both sqlite and postgres phrasing.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.IsCategory(err, goerrors.CategoryConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}

func isNoRows(err error) bool {
	if err == nil {
		return false
	}
	if repository.IsRecordNotFound(err) {
		return true
	}
	return strings.Contains(err.Error(), "no rows in result set")
}
