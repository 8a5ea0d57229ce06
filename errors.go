package provision

import (
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	TextCodeUsernameTaken    = "provision_username_taken"
	TextCodeStoreNotFound    = "provision_store_not_found"
	TextCodeRetailerNotFound = "provision_retailer_not_found"
	TextCodeRoleNotFound     = "provision_role_not_found"
	TextCodeGroupNotFound    = "provision_group_not_found"
	TextCodeTemplateNotFound = "provision_template_admin_not_found"
	TextCodeEmptyPassword    = "provision_empty_password"
)

// ErrEmptyPassword is returned when a password hash is requested for an
// empty cleartext.
var ErrEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

func conflictUsername(op, username string) *goerrors.Error {
	return goerrors.New("username already exists", goerrors.CategoryConflict).
		WithTextCode(TextCodeUsernameTaken).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{
			"operation": op,
			"username":  username,
		})
}

func notFoundStore(op string, storeID int64) *goerrors.Error {
	return goerrors.New("store not found", goerrors.CategoryNotFound).
		WithTextCode(TextCodeStoreNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{
			"operation": op,
			"store_id":  storeID,
		})
}

func notFoundRetailer(op string, retailerID int64) *goerrors.Error {
	return goerrors.New("retailer not found", goerrors.CategoryNotFound).
		WithTextCode(TextCodeRetailerNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{
			"operation":   op,
			"retailer_id": retailerID,
		})
}

func notFoundRole(op string, name RoleName) *goerrors.Error {
	return goerrors.New("role not found in catalog", goerrors.CategoryNotFound).
		WithTextCode(TextCodeRoleNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{
			"operation": op,
			"role":      name,
		})
}

func notFoundGroup(op, name string) *goerrors.Error {
	return goerrors.New("group not found", goerrors.CategoryNotFound).
		WithTextCode(TextCodeGroupNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{
			"operation": op,
			"group":     name,
		})
}

func notFoundTemplateAdmin(op, username string) *goerrors.Error {
	return goerrors.New("template admin account not found", goerrors.CategoryNotFound).
		WithTextCode(TextCodeTemplateNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{
			"operation":         op,
			"template_username": username,
		})
}

// IsConflict reports whether err carries the conflict category, regardless
// of how deep it sits in the wrap chain.
func IsConflict(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryConflict
	}
	return false
}

// IsNotFound reports whether err represents a missing record, either as a
// structured not-found error or as a repository-level miss.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.IsNotFound(err) || repository.IsRecordNotFound(err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation sniffs driver errors for unique constraint breaches.
// This is how a duplicate-insert race surfaces: two concurrent creates for
// the same username both pass the existence check, the loser gets this.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
