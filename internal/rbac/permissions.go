// Package rbac holds the static role to permission table used by the
// authorization middleware. Roles form a strict hierarchy: every permission
// granted to VIEWER is granted to MAINTAINER, and every permission granted to
// MAINTAINER is granted to ADMIN.
package rbac

import "strings"

// Role is the value stored in users.role.
type Role string

const (
	RoleViewer     Role = "VIEWER"
	RoleMaintainer Role = "MAINTAINER"
	RoleAdmin      Role = "ADMIN"
)

// Permission is a "<resource>:<action>" capability tag.
type Permission string

const (
	UsersRead    Permission = "users:read"
	UsersWrite   Permission = "users:write"
	UsersDelete  Permission = "users:delete"
	ThemesRead   Permission = "themes:read"
	ThemesWrite  Permission = "themes:write"
	ThemesDelete Permission = "themes:delete"
	TokensRead   Permission = "tokens:read"
	TokensWrite  Permission = "tokens:write"
	TokensDelete Permission = "tokens:delete"
	GroupsRead   Permission = "groups:read"
	GroupsWrite  Permission = "groups:write"
	GroupsDelete Permission = "groups:delete"
)

var viewerPermissions = []Permission{
	UsersRead,
	ThemesRead,
	TokensRead,
	GroupsRead,
}

var maintainerPermissions = []Permission{
	UsersRead,
	ThemesRead,
	ThemesWrite,
	ThemesDelete,
	TokensRead,
	TokensWrite,
	TokensDelete,
	GroupsRead,
	GroupsWrite,
	GroupsDelete,
}

var adminPermissions = []Permission{
	UsersRead,
	UsersWrite,
	UsersDelete,
	ThemesRead,
	ThemesWrite,
	ThemesDelete,
	TokensRead,
	TokensWrite,
	TokensDelete,
	GroupsRead,
	GroupsWrite,
	GroupsDelete,
}

var rolePermissions = map[Role][]Permission{
	RoleViewer:     viewerPermissions,
	RoleMaintainer: maintainerPermissions,
	RoleAdmin:      adminPermissions,
}

// PermissionsFor returns a copy of the permissions granted to role. Unknown
// roles get an empty, non-nil slice so callers can serialize it as [].
func PermissionsFor(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether role is granted p.
func HasPermission(role Role, p Permission) bool {
	for _, granted := range rolePermissions[role] {
		if granted == p {
			return true
		}
	}
	return false
}

// AvailableRoles lists the roles from least to most privileged.
func AvailableRoles() []Role {
	return []Role{RoleViewer, RoleMaintainer, RoleAdmin}
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

func (r Role) String() string { return string(r) }
