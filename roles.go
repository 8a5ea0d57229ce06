package provision

// RoleName is the business role classification of a user
type RoleName = string

const (
	// RoleStoreRep is a retail staff account scoped to a single store
	RoleStoreRep RoleName = "STORE_REP"
	// RoleRetailerAdmin is a retailer-level admin account
	RoleRetailerAdmin RoleName = "RETAILER_ADMIN"
	// RolePlatformAdmin is a platform-level administrator account
	RolePlatformAdmin RoleName = "PLATFORM_ADMIN"
)

// GroupTelesalesAgent is the permission group added to store reps
// provisioned for telesales.
const GroupTelesalesAgent = "TELESALES_AGENT"

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r RoleName) bool {
	switch r {
	case RoleStoreRep, RoleRetailerAdmin, RolePlatformAdmin:
		return true
	default:
		return false
	}
}

// AllRoles returns the role names this module assigns
func AllRoles() []RoleName {
	return []RoleName{
		RoleStoreRep,
		RoleRetailerAdmin,
		RolePlatformAdmin,
	}
}

// ParseRole safely parses a string into a RoleName
func ParseRole(roleStr string) (RoleName, bool) {
	role := RoleName(roleStr)
	return role, IsValidRole(role)
}
