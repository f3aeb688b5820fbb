package signup

import "strings"

// Role is the profile role
type Role string

const (
	// RoleBasicMember is the default, lowest privilege role
	RoleBasicMember Role = "basic_member"
	// RoleVIPMember is an elevated member
	RoleVIPMember Role = "vip_member"
	// RoleAdmin can operate the platform and needs no referrer
	RoleAdmin Role = "admin"
)

var roleHierarchy = map[Role]int{
	RoleBasicMember: 0,
	RoleVIPMember:   1,
	RoleAdmin:       2,
}

// ParseRole maps a raw role string, empty means the default role
func ParseRole(raw string) (Role, bool) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return RoleBasicMember, true
	}
	r := Role(raw)
	return r, r.IsValid()
}

// IsValid checks if the role is one of the predefined roles
func (r Role) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// RequiresReferrer reports whether profiles with this role must be referred
func (r Role) RequiresReferrer() bool {
	return r != RoleAdmin
}

// RolePolicy decides the role a new account receives given the requested one.
type RolePolicy func(requested Role) Role

// LowestPrivilegeRolePolicy grants the default role whatever was requested.
func LowestPrivilegeRolePolicy(Role) Role {
	return RoleBasicMember
}

// AllowRolesPolicy grants the requested role when it is listed and falls
// back to the default role otherwise.
func AllowRolesPolicy(allowed ...Role) RolePolicy {
	set := make(map[Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(requested Role) Role {
		if _, ok := set[requested]; ok {
			return requested
		}
		return RoleBasicMember
	}
}
