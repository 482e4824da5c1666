package business

import (
	"context"
	"time"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/dispatch"
)

// Owner lookup kinds registered for this module.
const (
	OwnerKindProfile   = "business.profile"
	OwnerKindPromotion = "business.promotion"
)

// RegisterOwners wires this module's ownership lookups into the resolver.
func RegisterOwners(resolver *authz.Resolver, repo Repository) {
	resolver.RegisterOwner(OwnerKindProfile, repo.ProfileOwner)
	resolver.RegisterOwner(OwnerKindPromotion, repo.PromotionOwner)
}

type createProfileRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required,max=100"`
	Website     string `json:"website" validate:"omitempty,url,max=300"`
}

type getProfileRequest struct {
	ProfileID int64 `json:"profile_id" validate:"required,gt=0"`
}

type listProfilesRequest struct {
	Category string `json:"category" validate:"omitempty,max=100"`
	Page     int    `json:"page" validate:"omitempty,gte=0"`
	PerPage  int    `json:"per_page" validate:"omitempty,gte=0,lte=100"`
}

type updateProfileRequest struct {
	ProfileID   int64  `json:"profile_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required,max=100"`
	Website     string `json:"website" validate:"omitempty,url,max=300"`
}

type createPromotionRequest struct {
	ProfileID   int64     `json:"profile_id" validate:"required,gt=0"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
}

type listPromotionsRequest struct {
	ProfileID  int64 `json:"profile_id" validate:"required,gt=0"`
	ActiveOnly bool  `json:"active_only"`
	Page       int   `json:"page" validate:"omitempty,gte=0"`
	PerPage    int   `json:"per_page" validate:"omitempty,gte=0,lte=100"`
}

type promotionIDRequest struct {
	PromotionID int64 `json:"promotion_id" validate:"required,gt=0"`
}

// Actions returns the dispatch table for the business endpoint.
func Actions(svc *Service) dispatch.ActionSet {
	return dispatch.ActionSet{
		"create_profile": {
			NewRequest: func() any { return &createProfileRequest{} },
			Handle: func(ctx context.Context, actor *authz.Identity, req any) (any, error) {
				in := req.(*createProfileRequest)
				return svc.CreateProfile(ctx, actor.UserID, in.Name, in.Description, in.Category, in.Website)
			},
		},
		"get_profile": {
			NewRequest: func() any { return &getProfileRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return svc.GetProfile(ctx, req.(*getProfileRequest).ProfileID)
			},
		},
		"list_profiles": {
			NewRequest: func() any { return &listProfilesRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*listProfilesRequest)
				return svc.ListProfiles(ctx, in.Category, in.Page, in.PerPage)
			},
		},
		"update_profile": {
			NewRequest: func() any { return &updateProfileRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Owner(OwnerKindProfile, req.(*updateProfileRequest).ProfileID)
			},
			Forbidden: "Not authorized to update this business profile",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*updateProfileRequest)
				return svc.UpdateProfile(ctx, in.ProfileID, in.Name, in.Description, in.Category, in.Website)
			},
		},
		"create_promotion": {
			NewRequest: func() any { return &createPromotionRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Owner(OwnerKindProfile, req.(*createPromotionRequest).ProfileID)
			},
			Forbidden: "Not authorized to create promotions for this profile",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*createPromotionRequest)
				return svc.CreatePromotion(ctx, in.ProfileID, in.Title, in.Description, in.StartsAt, in.EndsAt)
			},
		},
		"list_promotions": {
			NewRequest: func() any { return &listPromotionsRequest{} },
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				in := req.(*listPromotionsRequest)
				return svc.ListPromotions(ctx, in.ProfileID, in.ActiveOnly, in.Page, in.PerPage)
			},
		},
		"toggle_active": {
			NewRequest: func() any { return &promotionIDRequest{} },
			Require: func(_ any) authz.Requirement {
				return authz.Any(
					authz.AdminRole(authz.RoleCategoryManager),
					authz.AdminRole(authz.RoleSuperAdmin),
				)
			},
			Forbidden: "Not authorized to toggle promotions",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return svc.ToggleActive(ctx, req.(*promotionIDRequest).PromotionID)
			},
		},
		"delete_promotion": {
			NewRequest: func() any { return &promotionIDRequest{} },
			Require: func(req any) authz.Requirement {
				return authz.Any(
					authz.Owner(OwnerKindPromotion, req.(*promotionIDRequest).PromotionID),
					authz.AdminRole(authz.RoleCategoryManager),
				)
			},
			Forbidden: "Not authorized to delete this promotion",
			Handle: func(ctx context.Context, _ *authz.Identity, req any) (any, error) {
				return nil, svc.DeletePromotion(ctx, req.(*promotionIDRequest).PromotionID)
			},
		},
	}
}
