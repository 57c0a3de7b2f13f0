package model

// Caller roles carried in the identity token.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleGuest  = "guest"
)

var roleLevels = map[string]int{
	RoleAdmin:  3,
	RoleMember: 2,
	RoleGuest:  1,
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return roleLevels[role] > 0
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	return roleLevels[role] >= roleLevels[minimum] && roleLevels[minimum] > 0
}
