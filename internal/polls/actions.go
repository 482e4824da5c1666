package polls

import (
	"context"
	"time"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/dispatch"
)

// Owner lookup kinds registered for this module.
const (
	OwnerKindPoll = "poll"
	// OwnerKindPollCommunity resolves a poll to its community's creator,
	// so community owners can close polls they did not author.
	OwnerKindPollCommunity = "poll.community"
)

// RegisterOwners wires this module's ownership lookups into the resolver.
func RegisterOwners(resolver *authz.Resolver, repo Repository) {
	resolver.RegisterOwner(OwnerKindPoll, repo.CreatorOf)
	resolver.RegisterOwner(OwnerKindPollCommunity, repo.CommunityOwnerOf)
}

type createRequest struct {
	CommunityID int64      `json:"community_id" validate:"required,gt=0"`
	Question    string     `json:"question" validate:"required,max=300"`
	Options     []string   `json:"options" validate:"required,min=2,max=10,dive,required,max=100"`
	ClosesAt    *time.Time `json:"closes_at"`
}

type getRequest struct {
	PollID int64 `json:"poll_id" validate:"required,gt=0"`
}

type listRequest struct {
	CommunityID int64 `json:"community_id" validate:"required,gt=0"`
	Page        int   `json:"page" validate:"omitempty,gte=0"`
	PerPage     int   `json:"per_page" validate:"omitempty,gte=0,lte=100"`
}

type voteRequest struct {
	PollID   int64 `json:"poll_id" validate:"required,gt=0"`
	OptionID int64 `json:"option_id" validate:"required,gt=0"`
}

type closeRequest struct {
	PollID int64 `json:"poll_id" validate:"required,gt=0"`
}

// Actions returns the dispatch table for the polls endpoint.
func Actions(svc *Service) dispatch.ActionSet {
	return dispatch.ActionSet{
		"create_poll": {
			NewRequest: func() any { return &createRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Scoped(authz.PermissionCreatePolls, req.(*createRequest).CommunityID)
			},
			Forbidden: "Not authorized to create polls in this community",
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*createRequest)
				return svc.Create(ctx, in.CommunityID, actor.UserID, in.Question, in.ClosesAt, in.Options)
			},
		},
		"get_poll": {
			NewRequest: func() any { return &getRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return svc.Get(ctx, req.(*getRequest).PollID)
			},
		},
		"list_polls": {
			NewRequest: func() any { return &listRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*listRequest)
				return svc.List(ctx, in.CommunityID, in.Page, in.PerPage)
			},
		},
		"vote": {
			NewRequest: func() any { return &voteRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*voteRequest)
				return svc.Vote(ctx, in.PollID, actor.UserID, in.OptionID)
			},
		},
		"close_poll": {
			NewRequest: func() any { return &closeRequest{} },
			Require: func(req any) authz.Requirement {
				id := req.(*closeRequest).PollID
				return authz.Any(
					authz.Owner(OwnerKindPoll, id),
					authz.Owner(OwnerKindPollCommunity, id),
				)
			},
			Forbidden: "Not authorized to close this poll",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return nil, svc.Close(ctx, req.(*closeRequest).PollID)
			},
		},
	}
}
