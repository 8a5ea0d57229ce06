package provision

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var UpdateUserCredentialsSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"email" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var SetUserAdminFlagsSQL = `UPDATE "users" AS "usr"
SET
	"is_staff" = TRUE,
	"is_superuser" = TRUE
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the identity store surface provisioning operations rely on.
type Users interface {
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	CreateIgnoreConflictTx(ctx context.Context, tx bun.IDB, record *User) (*User, bool, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	ExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error)
	UpdateCredentialsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash, email string) (*User, error)
	SetAdminFlagsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

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
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

// CreateIgnoreConflictTx inserts the record unless the username is already
// taken, reporting whether a row was written. A duplicate is not a statement
// error, so the surrounding transaction stays usable on every dialect,
// postgres included.
func (a *users) CreateIgnoreConflictTx(ctx context.Context, tx bun.IDB, record *User) (*User, bool, error) {
	prepareUserDefaults(record)

	res, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (username) DO NOTHING").
		Exec(ctx)

	if err != nil {
		return nil, false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	if n == 0 {
		return nil, false, nil
	}

	return record, true, nil
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}

func (a *users) UpdateCredentialsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash, email string) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, UpdateUserCredentialsSQL, passwordHash, email, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *users) SetAdminFlagsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, SetUserAdminFlagsSQL, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.IsActive = true

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
