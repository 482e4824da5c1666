// Package authz implements the request authorization gateway: it turns an
// opaque session token into an authenticated identity and a permission
// decision before a handler is allowed to touch any row.
package authz

import "time"

// Role is a global admin role. Holding any recognized role makes a user
// an administrator.
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleContentModerator Role = "content_moderator"
	RoleCategoryManager  Role = "category_manager"
)

// RecognizedRoles lists every role the platform knows about.
func RecognizedRoles() []Role {
	return []Role{RoleSuperAdmin, RoleContentModerator, RoleCategoryManager}
}

// IsRecognizedRole reports whether r is a known admin role.
func IsRecognizedRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleContentModerator, RoleCategoryManager:
		return true
	}
	return false
}

// Permission is a per-community capability.
type Permission string

const (
	PermissionEdit          Permission = "edit"
	PermissionCreatePolls   Permission = "create_polls"
	PermissionModerate      Permission = "moderate"
	PermissionManageMembers Permission = "manage_members"
)

// AllPermissions lists every scoped permission. A community's creator holds
// all of them implicitly.
func AllPermissions() []Permission {
	return []Permission{PermissionEdit, PermissionCreatePolls, PermissionModerate, PermissionManageMembers}
}

// IsRecognizedPermission reports whether p is a known scoped permission.
func IsRecognizedPermission(p Permission) bool {
	switch p {
	case PermissionEdit, PermissionCreatePolls, PermissionModerate, PermissionManageMembers:
		return true
	}
	return false
}

// RoleSet holds the global roles resolved for a user.
type RoleSet map[Role]struct{}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// IsAdmin reports whether the set contains any recognized role.
func (s RoleSet) IsAdmin() bool {
	for r := range s {
		if IsRecognizedRole(r) {
			return true
		}
	}
	return false
}

// PermissionSet holds scoped permissions resolved for one (user, community).
type PermissionSet map[Permission]struct{}

// Has reports whether the set contains p.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Session is a row in the session store. A session is usable iff it is
// active and not yet expired.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	IsActive  bool
}

// Identity is the request-scoped result of a successful authorization:
// the authenticated user plus the capability sets resolved for the
// requested scope. It is never persisted.
type Identity struct {
	UserID int64
	Roles  RoleSet
	// Permissions holds the scoped capability set when the requirement
	// named a community scope; nil otherwise.
	Permissions PermissionSet
}

// IsAdmin reports whether the identity holds any recognized admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Roles.IsAdmin()
}

// HasRole reports whether the identity holds the given role.
func (id *Identity) HasRole(r Role) bool {
	return id != nil && id.Roles.Has(r)
}
