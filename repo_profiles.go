package provision

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Roles is the read interface over the role catalog.
type Roles interface {
	GetByNameTx(ctx context.Context, tx bun.IDB, name RoleName) (*Role, error)
}

// Profiles resolves and mutates the single profile record of a user.
//
// ResolveTx is the only way provisioning code reaches a profile. The schema
// went through a migration that moved the linkage from users.profile_id to
// user_profiles.user_id, and rows written before the cutover only carry the
// old column. Both access paths live here so call sites never learn about
// the migration and a user can never end up with two profile rows.
type Profiles interface {
	ResolveTx(ctx context.Context, tx bun.IDB, user *User) (*Profile, error)
	AssignRoleTx(ctx context.Context, tx bun.IDB, profile *Profile, roleID uuid.UUID) (*Profile, error)
	SetEmailLowerTx(ctx context.Context, tx bun.IDB, profile *Profile, email string) (*Profile, error)
}

type roles struct {
	db *bun.DB
}

var _ Roles = (*roles)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	return &roles{db: db}
}

func (r *roles) GetByNameTx(ctx context.Context, tx bun.IDB, name RoleName) (*Role, error) {
	record := &Role{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"role": name,
				})
		}
		return nil, err
	}

	return record, nil
}

type profiles struct {
	db *bun.DB
}

var _ Profiles = (*profiles)(nil)

func NewProfilesRepository(db *bun.DB) Profiles {
	return &profiles{db: db}
}

func (p *profiles) ResolveTx(ctx context.Context, tx bun.IDB, user *User) (*Profile, error) {
	// primary path: post-migration linkage
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", user.ID).
		Limit(1).
		Scan(ctx)

	if err == nil {
		return record, nil
	}

	if !repository.IsRecordNotFound(err) && !isNoRows(err) {
		return nil, err
	}

	// legacy path: pre-migration rows linked through users.profile_id
	if user.ProfileID != nil {
		record = &Profile{}
		err = tx.NewSelect().
			Model(record).
			Where("?TableAlias.id = ?", *user.ProfileID).
			Limit(1).
			Scan(ctx)

		if err == nil {
			if record.UserID == nil {
				// backfill so the primary path finds it next time
				record.UserID = &user.ID
				if _, err := tx.NewUpdate().
					Model(record).
					Column("user_id").
					WherePK().
					Exec(ctx); err != nil {
					return nil, err
				}
			}
			return record, nil
		}

		if !repository.IsRecordNotFound(err) && !isNoRows(err) {
			return nil, err
		}
	}

	record = &Profile{
		ID:     uuid.New(),
		UserID: &user.ID,
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (p *profiles) AssignRoleTx(ctx context.Context, tx bun.IDB, profile *Profile, roleID uuid.UUID) (*Profile, error) {
	profile.RoleID = &roleID

	_, err := tx.NewUpdate().
		Model(profile).
		Column("role_id").
		WherePK().
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (p *profiles) SetEmailLowerTx(ctx context.Context, tx bun.IDB, profile *Profile, email string) (*Profile, error) {
	profile.EmailLower = NormalizeEmail(email)

	_, err := tx.NewUpdate().
		Model(profile).
		Column("email_lower").
		WherePK().
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return profile, nil
}
