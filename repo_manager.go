package provision

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories plus the unit of work every
// provisioning operation runs inside.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Profiles() Profiles
	Roles() Roles
	Groups() Groups
	Tenants() Tenants
	PasswordHistory() PasswordHistory
}

type mngr struct {
	db              *bun.DB
	users           Users
	profiles        Profiles
	roles           Roles
	groups          Groups
	tenants         Tenants
	passwordHistory PasswordHistory
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:              db,
		users:           NewUsersRepository(db),
		profiles:        NewProfilesRepository(db),
		roles:           NewRolesRepository(db),
		groups:          NewGroupsRepository(db),
		tenants:         NewTenantsRepository(db),
		passwordHistory: NewPasswordHistoryRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	if m.groups == nil {
		return errors.New("repository groups should be initialized")
	}

	if m.tenants == nil {
		return errors.New("repository tenants should be initialized")
	}

	if m.passwordHistory == nil {
		return errors.New("repository passwordHistory should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Profiles() Profiles {
	return m.profiles
}

func (m mngr) Roles() Roles {
	return m.roles
}

func (m mngr) Groups() Groups {
	return m.groups
}

func (m mngr) Tenants() Tenants {
	return m.tenants
}

func (m mngr) PasswordHistory() PasswordHistory {
	return m.passwordHistory
}
