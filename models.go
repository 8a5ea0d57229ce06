package provision

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the durable identity record. Created once per username and only
// mutated (credentials, flags) by provisioning operations, never deleted here.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string    `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	Email         string    `bun:"email,notnull" json:"email,omitempty"`
	Phone         string    `bun:"phone_number" json:"phone_number,omitempty"`
	IsStaff       bool      `bun:"is_staff" json:"is_staff,omitempty"`
	IsSuperuser   bool      `bun:"is_superuser" json:"is_superuser,omitempty"`
	IsActive      bool      `bun:"is_active" json:"is_active,omitempty"`
	// ProfileID is the pre-migration linkage column. New rows leave it NULL
	// and rely on user_profiles.user_id; see Profiles.ResolveTx.
	ProfileID *uuid.UUID `bun:"profile_id,nullzero,type:uuid" json:"profile_id,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PasswordHistoryEntry is one row of the append-only ledger of password
// hashes ever assigned to a user. One row per password set, written in the
// same transaction as the set itself.
type PasswordHistoryEntry struct {
	bun.BaseModel `bun:"table:user_password_history,alias:uph"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Role is a catalog row. The RoleName constants in roles.go name the entries
// this module expects to find; they are not the catalog itself.
type Role struct {
	bun.BaseModel `bun:"table:user_roles,alias:rol"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          RoleName  `bun:"name,notnull,unique" json:"name,omitempty"`
	Description   string    `bun:"description" json:"description,omitempty"`
}

// Profile holds the role assignment and auxiliary per-user fields. At most
// one row per user; role changes overwrite RoleID rather than append.
type Profile struct {
	bun.BaseModel `bun:"table:user_profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,nullzero,unique,type:uuid" json:"user_id,omitempty"`
	RoleID        *uuid.UUID `bun:"role_id,nullzero,type:uuid" json:"role_id,omitempty"`
	Role          *Role      `bun:"rel:has-one,join:role_id=id" json:"role,omitempty"`
	EmailLower    string     `bun:"email_lower" json:"email_lower,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Group is a named permission group.
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:grp"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string    `bun:"name,notnull,unique" json:"name,omitempty"`
}

// GroupMembership is the user/group join. Exactly one row per
// (user_id, group_id); membership is a set, adds are idempotent.
type GroupMembership struct {
	bun.BaseModel `bun:"table:user_groups,alias:ug"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid,unique:uq_user_group" json:"user_id,omitempty"`
	GroupID       uuid.UUID  `bun:"group_id,notnull,type:uuid,unique:uq_user_group" json:"group_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Store is a tenant directory entry. Integer keyed, legacy schema.
type Store struct {
	bun.BaseModel `bun:"table:stores,alias:sto"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string `bun:"name,notnull" json:"name,omitempty"`
	RetailerID    *int64 `bun:"retailer_id,nullzero" json:"retailer_id,omitempty"`
}

// Retailer is a tenant directory entry. Integer keyed, legacy schema.
type Retailer struct {
	bun.BaseModel `bun:"table:retailers,alias:ret"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string `bun:"name,notnull" json:"name,omitempty"`
}

// StoreRep links a provisioned user to the store they represent.
type StoreRep struct {
	bun.BaseModel `bun:"table:store_reps,alias:srp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	StoreID       int64      `bun:"store_id,notnull" json:"store_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// RetailerAdmin links a user to a retailer's admin list. One row per
// (retailer_id, user_id).
type RetailerAdmin struct {
	bun.BaseModel `bun:"table:retailer_users,alias:rtu"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RetailerID    int64      `bun:"retailer_id,notnull,unique:uq_retailer_user" json:"retailer_id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid,unique:uq_retailer_user" json:"user_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// NormalizeEmail lowercases an email the way the email_lower profile
// field stores it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
