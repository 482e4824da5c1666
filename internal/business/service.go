package business

import (
	"context"
	"strings"
	"time"

	"github.com/agora-social/agora/internal/platform/httpx"
	"github.com/agora-social/agora/internal/shared"
)

// Service wraps business-profile and promotion rules.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateProfile registers the caller's business profile. One per user.
func (s *Service) CreateProfile(ctx context.Context, ownerID int64, name, description, category, website string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Business name is required")
	}
	return s.repo.CreateProfile(ctx, ownerID, name, strings.TrimSpace(description), strings.TrimSpace(category), strings.TrimSpace(website))
}

// GetProfile fetches a profile by id.
func (s *Service) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// ProfilesResult pairs a page of profiles with pagination metadata.
type ProfilesResult struct {
	Profiles   []Profile         `json:"profiles"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListProfiles returns a page of profiles, optionally filtered by category.
func (s *Service) ListProfiles(ctx context.Context, category string, page, perPage int) (*ProfilesResult, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListProfiles(ctx, strings.TrimSpace(category), p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Profile{}
	}
	return &ProfilesResult{Profiles: items, Pagination: shared.NewPagination(p.Page, p.PerPage, total)}, nil
}

// UpdateProfile rewrites a profile's mutable fields.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name, description, category, website string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Business name is required")
	}
	return s.repo.UpdateProfile(ctx, id, name, strings.TrimSpace(description), strings.TrimSpace(category), strings.TrimSpace(website))
}

// CreatePromotion attaches a promotion to a profile. The window must be
// coherent and end in the future.
func (s *Service) CreatePromotion(ctx context.Context, profileID int64, title, description string, startsAt, endsAt time.Time) (*Promotion, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Promotion title is required")
	}
	if !endsAt.After(startsAt) {
		return nil, httpx.Public(httpx.ErrValidation, "Promotion must end after it starts")
	}
	if !endsAt.After(s.now()) {
		return nil, httpx.Public(httpx.ErrValidation, "Promotion end time must be in the future")
	}
	return s.repo.CreatePromotion(ctx, profileID, title, strings.TrimSpace(description), startsAt, endsAt)
}

// PromotionsResult pairs a page of promotions with pagination metadata.
type PromotionsResult struct {
	Promotions []Promotion       `json:"promotions"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListPromotions returns a page of promotions for a profile.
func (s *Service) ListPromotions(ctx context.Context, profileID int64, activeOnly bool, page, perPage int) (*PromotionsResult, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListPromotions(ctx, profileID, activeOnly, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Promotion{}
	}
	return &PromotionsResult{Promotions: items, Pagination: shared.NewPagination(p.Page, p.PerPage, total)}, nil
}

// ToggleActive flips a promotion's active flag and returns the new state.
func (s *Service) ToggleActive(ctx context.Context, id int64) (*Promotion, error) {
	current, err := s.repo.GetPromotion(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.SetPromotionActive(ctx, id, !current.IsActive)
}

// DeletePromotion removes a promotion.
func (s *Service) DeletePromotion(ctx context.Context, id int64) error {
	return s.repo.DeletePromotion(ctx, id)
}
