package authz

type requirementKind int

const (
	requireSession requirementKind = iota
	requireAnyAdmin
	requireAdminRole
	requireScoped
	requireOwner
	requireAny
)

// Requirement describes the capability a dispatched action demands:
// a valid session, any recognized admin role, a named admin role, one
// scoped permission, resource ownership, or any of a set of alternatives.
type Requirement struct {
	kind        requirementKind
	role        Role
	permission  Permission
	communityID int64
	ownerKind   string
	resourceID  int64
	anyOf       []Requirement
}

// ValidSession requires only a valid session.
func ValidSession() Requirement {
	return Requirement{kind: requireSession}
}

// AnyAdmin requires any recognized admin role.
func AnyAdmin() Requirement {
	return Requirement{kind: requireAnyAdmin}
}

// AdminRole requires one named admin role.
func AdminRole(role Role) Requirement {
	return Requirement{kind: requireAdminRole, role: role}
}

// Scoped requires one named permission within a community. The community
// creator satisfies every scoped requirement without a stored grant.
func Scoped(perm Permission, communityID int64) Requirement {
	return Requirement{kind: requireScoped, permission: perm, communityID: communityID}
}

// Owner requires the caller to own the referenced resource. The kind must
// have an owner lookup registered on the resolver.
func Owner(kind string, resourceID int64) Requirement {
	return Requirement{kind: requireOwner, ownerKind: kind, resourceID: resourceID}
}

// Any is satisfied when at least one alternative is.
func Any(alternatives ...Requirement) Requirement {
	return Requirement{kind: requireAny, anyOf: alternatives}
}
