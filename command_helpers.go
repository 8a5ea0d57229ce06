package provision

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

const (
	opStoreRep      = "provision.store_rep"
	opRetailerAdmin = "provision.retailer_admin"
	opPlatformAdmin = "provision.platform_admin"
)

// assignRoleTx resolves the user's profile and overwrites its role with the
// catalog entry for roleName. Overwrite, never append: a user has at most
// one active role.
func assignRoleTx(ctx context.Context, tx bun.IDB, repo RepositoryManager, op string, user *User, roleName RoleName) error {
	profile, err := repo.Profiles().ResolveTx(ctx, tx, user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve user profile")
	}

	role, err := repo.Roles().GetByNameTx(ctx, tx, roleName)
	if err != nil {
		if IsNotFound(err) {
			return notFoundRole(op, roleName)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up role")
	}

	if _, err := repo.Profiles().AssignRoleTx(ctx, tx, profile, role.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to assign role")
	}

	return nil
}

// optionalPhone is an ozzo rule: empty is fine, anything else must parse as
// a valid number.
func optionalPhone(value any) error {
	phone, _ := value.(string)
	if phone == "" {
		return nil
	}

	num, err := phonenumbers.Parse(phone, "US")
	if err != nil {
		return err
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}
