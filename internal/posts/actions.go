package posts

import (
	"context"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/dispatch"
)

// Owner lookup kinds registered for this module.
const (
	OwnerKindPost        = "post"
	OwnerKindComment     = "comment"
	OwnerKindCommentPost = "comment.post"
)

// Reporter files a report against a post, hiding it when the report
// threshold is crossed. Implemented by the moderation service.
type Reporter interface {
	Report(ctx context.Context, postID, reporterID int64, reason string) (hidden bool, err error)
}

// RegisterOwners wires this module's ownership lookups into the resolver.
func RegisterOwners(resolver *authz.Resolver, repo Repository) {
	resolver.RegisterOwner(OwnerKindPost, repo.AuthorOf)
	resolver.RegisterOwner(OwnerKindComment, repo.CommentAuthor)
	resolver.RegisterOwner(OwnerKindCommentPost, repo.CommentPostAuthor)
}

type createRequest struct {
	CommunityID *int64 `json:"community_id" validate:"omitempty,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Body        string `json:"body" validate:"required,max=10000"`
}

type getRequest struct {
	PostID int64 `json:"post_id" validate:"required,gt=0"`
}

type listRequest struct {
	CommunityID *int64 `json:"community_id" validate:"omitempty,gt=0"`
	AuthorID    *int64 `json:"author_id" validate:"omitempty,gt=0"`
	Page        int    `json:"page" validate:"omitempty,gte=0"`
	PerPage     int    `json:"per_page" validate:"omitempty,gte=0,lte=100"`
}

type updateRequest struct {
	PostID int64  `json:"post_id" validate:"required,gt=0"`
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"required,max=10000"`
}

type deleteRequest struct {
	PostID int64 `json:"post_id" validate:"required,gt=0"`
}

type toggleLikeRequest struct {
	PostID int64 `json:"post_id" validate:"required,gt=0"`
}

type addCommentRequest struct {
	PostID int64  `json:"post_id" validate:"required,gt=0"`
	Body   string `json:"body" validate:"required,max=4000"`
}

type deleteCommentRequest struct {
	CommentID int64 `json:"comment_id" validate:"required,gt=0"`
}

type listCommentsRequest struct {
	PostID  int64 `json:"post_id" validate:"required,gt=0"`
	Page    int   `json:"page" validate:"omitempty,gte=0"`
	PerPage int   `json:"per_page" validate:"omitempty,gte=0,lte=100"`
}

type reportRequest struct {
	PostID int64  `json:"post_id" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// Actions returns the dispatch table for the posts endpoint.
func Actions(svc *Service, reporter Reporter) dispatch.ActionSet {
	return dispatch.ActionSet{
		"create_post": {
			NewRequest: func() any { return &createRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*createRequest)
				return svc.Create(ctx, actor.UserID, in.CommunityID, in.Title, in.Body)
			},
		},
		"get_post": {
			NewRequest: func() any { return &getRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				return svc.Get(ctx, actor, req.(*getRequest).PostID)
			},
		},
		"list_posts": {
			NewRequest: func() any { return &listRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*listRequest)
				return svc.List(ctx, actor, ListFilters{
					CommunityID: in.CommunityID,
					AuthorID:    in.AuthorID,
					Page:        in.Page,
					PerPage:     in.PerPage,
				})
			},
		},
		"update_post": {
			NewRequest: func() any { return &updateRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Owner(OwnerKindPost, req.(*updateRequest).PostID)
			},
			Forbidden: "Not authorized to update this post",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*updateRequest)
				return svc.Update(ctx, in.PostID, in.Title, in.Body)
			},
		},
		"delete_post": {
			NewRequest: func() any { return &deleteRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Any(
					authz.Owner(OwnerKindPost, req.(*deleteRequest).PostID),
					authz.AdminRole(authz.RoleContentModerator),
				)
			},
			Forbidden: "Not authorized to delete this post",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return nil, svc.Delete(ctx, req.(*deleteRequest).PostID)
			},
		},
		"toggle_like": {
			NewRequest: func() any { return &toggleLikeRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				return svc.ToggleLike(ctx, req.(*toggleLikeRequest).PostID, actor.UserID)
			},
		},
		"add_comment": {
			NewRequest: func() any { return &addCommentRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*addCommentRequest)
				return svc.AddComment(ctx, in.PostID, actor.UserID, in.Body)
			},
		},
		"delete_comment": {
			NewRequest: func() any { return &deleteCommentRequest{} },
			Require: func(req any) authz.Requirement {
				id := req.(*deleteCommentRequest).CommentID
				return authz.Any(
					authz.Owner(OwnerKindComment, id),
					authz.Owner(OwnerKindCommentPost, id),
				)
			},
			Forbidden: "Not authorized to delete this comment",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return nil, svc.DeleteComment(ctx, req.(*deleteCommentRequest).CommentID)
			},
		},
		"list_comments": {
			NewRequest: func() any { return &listCommentsRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*listCommentsRequest)
				return svc.ListComments(ctx, in.PostID, in.Page, in.PerPage)
			},
		},
		"report_post": {
			NewRequest: func() any { return &reportRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*reportRequest)
				hidden, err := reporter.Report(ctx, in.PostID, actor.UserID, in.Reason)
				if err != nil {
					return nil, err
				}
				return map[string]any{"hidden": hidden}, nil
			},
		},
	}
}
