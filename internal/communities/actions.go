package communities

import (
	"context"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/dispatch"
)

// OwnerKindCommunity keys the community ownership lookup.
const OwnerKindCommunity = "community"

// RegisterOwners wires this module's ownership lookup into the resolver.
func RegisterOwners(resolver *authz.Resolver, repo Repository) {
	resolver.RegisterOwner(OwnerKindCommunity, repo.CreatorOf)
}

type createRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

type getRequest struct {
	CommunityID int64 `json:"community_id" validate:"required,gt=0"`
}

type listRequest struct {
	Page    int `json:"page" validate:"omitempty,gte=0"`
	PerPage int `json:"per_page" validate:"omitempty,gte=0,lte=100"`
}

type updateRequest struct {
	CommunityID int64  `json:"community_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

type deleteRequest struct {
	CommunityID int64 `json:"community_id" validate:"required,gt=0"`
}

type membershipRequest struct {
	CommunityID int64 `json:"community_id" validate:"required,gt=0"`
}

type listMembersRequest struct {
	CommunityID int64 `json:"community_id" validate:"required,gt=0"`
	Page        int   `json:"page" validate:"omitempty,gte=0"`
	PerPage     int   `json:"per_page" validate:"omitempty,gte=0,lte=100"`
}

type grantRequest struct {
	CommunityID int64  `json:"community_id" validate:"required,gt=0"`
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	Permission  string `json:"permission" validate:"required"`
}

// Actions returns the dispatch table for the communities endpoint.
func Actions(svc *Service) dispatch.ActionSet {
	return dispatch.ActionSet{
		"create_community": {
			NewRequest: func() any { return &createRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*createRequest)
				return svc.Create(ctx, actor.UserID, in.Name, in.Description)
			},
		},
		"get_community": {
			NewRequest: func() any { return &getRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return svc.Get(ctx, req.(*getRequest).CommunityID)
			},
		},
		"list_communities": {
			NewRequest: func() any { return &listRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*listRequest)
				return svc.List(ctx, in.Page, in.PerPage)
			},
		},
		"update_community": {
			NewRequest: func() any { return &updateRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Scoped(authz.PermissionEdit, req.(*updateRequest).CommunityID)
			},
			Forbidden: "Not authorized to update this community",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*updateRequest)
				return svc.Update(ctx, in.CommunityID, in.Name, in.Description)
			},
		},
		"delete_community": {
			NewRequest: func() any { return &deleteRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Any(
					authz.Owner(OwnerKindCommunity, req.(*deleteRequest).CommunityID),
					authz.AnyAdmin(),
				)
			},
			Forbidden: "Not authorized to delete this community",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return nil, svc.Delete(ctx, req.(*deleteRequest).CommunityID)
			},
		},
		"join": {
			NewRequest: func() any { return &membershipRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				return nil, svc.Join(ctx, req.(*membershipRequest).CommunityID, actor.UserID)
			},
		},
		"leave": {
			NewRequest: func() any { return &membershipRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				return nil, svc.Leave(ctx, req.(*membershipRequest).CommunityID, actor.UserID)
			},
		},
		"list_members": {
			NewRequest: func() any { return &listMembersRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*listMembersRequest)
				return svc.ListMembers(ctx, in.CommunityID, in.Page, in.PerPage)
			},
		},
		"grant_permission": {
			NewRequest: func() any { return &grantRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Scoped(authz.PermissionManageMembers, req.(*grantRequest).CommunityID)
			},
			Forbidden: "Not authorized to manage members of this community",
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*grantRequest)
				return nil, svc.Grant(ctx, in.CommunityID, in.UserID, in.Permission, actor.UserID)
			},
		},
		"revoke_permission": {
			NewRequest: func() any { return &grantRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Scoped(authz.PermissionManageMembers, req.(*grantRequest).CommunityID)
			},
			Forbidden: "Not authorized to manage members of this community",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*grantRequest)
				return nil, svc.Revoke(ctx, in.CommunityID, in.UserID, in.Permission)
			},
		},
	}
}
