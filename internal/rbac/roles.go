package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts
// and match the account roles stored in the database.
const (
	RoleMain  = "main"
	RoleSub   = "sub"
	RoleAdmin = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsKnownRole(role string) bool {
	switch role {
	case RoleMain, RoleSub, RoleAdmin:
		return true
	default:
		return false
	}
}
