package moderation

import (
	"context"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/dispatch"
)

type listReportsRequest struct {
	Status  string `json:"status" validate:"omitempty,oneof=open dismissed upheld"`
	Page    int    `json:"page" validate:"omitempty,gte=0"`
	PerPage int    `json:"per_page" validate:"omitempty,gte=0,lte=100"`
}

type resolveReportRequest struct {
	ReportID int64 `json:"report_id" validate:"required,gt=0"`
	Uphold   bool  `json:"uphold"`
}

type postIDRequest struct {
	PostID int64 `json:"post_id" validate:"required,gt=0"`
}

type roleRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Role   string `json:"role" validate:"required,max=100"`
}

// Actions returns the dispatch table for the admin endpoint.
func Actions(svc *Service) dispatch.ActionSet {
	moderator := func(_ any) authz.Requirement {
		return authz.Any(
			authz.AdminRole(authz.RoleContentModerator),
			authz.AdminRole(authz.RoleSuperAdmin),
		)
	}
	superAdmin := func(_ any) authz.Requirement {
		return authz.AdminRole(authz.RoleSuperAdmin)
	}

	return dispatch.ActionSet{
		"list_reports": {
			NewRequest: func() any { return &listReportsRequest{} },
			Require:    moderator,
			Forbidden:  "Not authorized to view reports",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*listReportsRequest)
				return svc.ListReports(ctx, in.Status, in.Page, in.PerPage)
			},
		},
		"resolve_report": {
			NewRequest: func() any { return &resolveReportRequest{} },
			Require:    moderator,
			Forbidden:  "Not authorized to resolve reports",
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*resolveReportRequest)
				return svc.Resolve(ctx, actor.UserID, in.ReportID, in.Uphold)
			},
		},
		"hide_post": {
			NewRequest: func() any { return &postIDRequest{} },
			Require:    moderator,
			Forbidden:  "Not authorized to hide posts",
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				return nil, svc.SetPostHidden(ctx, actor.UserID, req.(*postIDRequest).PostID, true)
			},
		},
		"unhide_post": {
			NewRequest: func() any { return &postIDRequest{} },
			Require:    moderator,
			Forbidden:  "Not authorized to unhide posts",
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				return nil, svc.SetPostHidden(ctx, actor.UserID, req.(*postIDRequest).PostID, false)
			},
		},
		"assign_role": {
			NewRequest: func() any { return &roleRequest{} },
			Require:    superAdmin,
			Forbidden:  "Not authorized to manage roles",
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*roleRequest)
				return nil, svc.AssignRole(ctx, actor.UserID, in.UserID, in.Role)
			},
		},
		"revoke_role": {
			NewRequest: func() any { return &roleRequest{} },
			Require:    superAdmin,
			Forbidden:  "Not authorized to manage roles",
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*roleRequest)
				return nil, svc.RevokeRole(ctx, actor.UserID, in.UserID, in.Role)
			},
		},
		"list_admins": {
			NewRequest: func() any { return &listAdminsRequest{} },
			Require:    superAdmin,
			Forbidden:  "Not authorized to view role assignments",
			Handle: func(ctx context.Context, _ *authz.Identity, _ any) (any, error) {
				return svc.ListAdmins(ctx)
			},
		},
	}
}

type listAdminsRequest struct{}
