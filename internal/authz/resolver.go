package authz

import (
	"context"
	"fmt"
)

// RoleStore is the persistence contract for global role lookups.
type RoleStore interface {
	UserRoles(ctx context.Context, userID int64) ([]string, error)
}

// GrantStore is the persistence contract for scoped permission lookups.
type GrantStore interface {
	UserCommunityPermissions(ctx context.Context, userID, communityID int64) ([]string, error)
	CommunityCreator(ctx context.Context, communityID int64) (int64, error)
}

// OwnerLookup resolves the owning user of a resource by id.
type OwnerLookup func(ctx context.Context, resourceID int64) (int64, error)

// Resolver computes role and permission sets. Nothing is cached across
// requests: every request re-resolves, trading latency for always-current
// authorization.
type Resolver struct {
	roles  RoleStore
	grants GrantStore
	owners map[string]OwnerLookup
}

// NewResolver constructs a Resolver.
func NewResolver(roles RoleStore, grants GrantStore) *Resolver {
	return &Resolver{roles: roles, grants: grants, owners: make(map[string]OwnerLookup)}
}

// RegisterOwner wires an ownership lookup for a resource kind. Modules
// register their lookups during application wiring.
func (r *Resolver) RegisterOwner(kind string, fn OwnerLookup) {
	r.owners[kind] = fn
}

// RolesOf returns the global roles held by the user; unrecognized rows are
// ignored. An empty set means the user is not an administrator.
func (r *Resolver) RolesOf(ctx context.Context, userID int64) (RoleSet, error) {
	rows, err := r.roles.UserRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("authz: resolve roles: %w", err)
	}
	set := make(RoleSet, len(rows))
	for _, row := range rows {
		role := Role(row)
		if IsRecognizedRole(role) {
			set[role] = struct{}{}
		}
	}
	return set, nil
}

// PermissionsOf returns the scoped capability set for (user, community):
// the union of explicit grant rows and, when the user created the
// community, the full permission set. The creator override is always
// computed, never stored.
func (r *Resolver) PermissionsOf(ctx context.Context, userID, communityID int64) (PermissionSet, error) {
	creator, err := r.grants.CommunityCreator(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if creator == userID {
		set := make(PermissionSet, len(AllPermissions()))
		for _, p := range AllPermissions() {
			set[p] = struct{}{}
		}
		return set, nil
	}
	rows, err := r.grants.UserCommunityPermissions(ctx, userID, communityID)
	if err != nil {
		return nil, fmt.Errorf("authz: resolve permissions: %w", err)
	}
	set := make(PermissionSet, len(rows))
	for _, row := range rows {
		perm := Permission(row)
		if IsRecognizedPermission(perm) {
			set[perm] = struct{}{}
		}
	}
	return set, nil
}

// OwnerOf resolves the owner of a registered resource kind.
func (r *Resolver) OwnerOf(ctx context.Context, kind string, resourceID int64) (int64, error) {
	lookup, ok := r.owners[kind]
	if !ok {
		return 0, fmt.Errorf("authz: no owner lookup registered for kind %q", kind)
	}
	return lookup(ctx, resourceID)
}
