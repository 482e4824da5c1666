package communities

import (
	"context"
	"strings"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/platform/httpx"
	"github.com/agora-social/agora/internal/shared"
)

// Service wraps community business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new community owned by the caller.
func (s *Service) Create(ctx context.Context, createdBy int64, name, description string) (*Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Community name is required")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Community name must contain letters or digits")
	}
	return s.repo.Create(ctx, name, slug, strings.TrimSpace(description), createdBy)
}

// Get fetches a community by id.
func (s *Service) Get(ctx context.Context, id int64) (*Community, error) {
	return s.repo.Get(ctx, id)
}

// ListResult pairs a page of communities with pagination metadata.
type ListResult struct {
	Communities []Community       `json:"communities"`
	Pagination  shared.Pagination `json:"pagination"`
}

// List returns a page of communities.
func (s *Service) List(ctx context.Context, page, perPage int) (*ListResult, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.List(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Community{}
	}
	return &ListResult{Communities: items, Pagination: shared.NewPagination(p.Page, p.PerPage, total)}, nil
}

// Update rewrites name and description. The slug is fixed at creation.
func (s *Service) Update(ctx context.Context, id int64, name, description string) (*Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Community name is required")
	}
	return s.repo.Update(ctx, id, name, strings.TrimSpace(description))
}

// Delete removes a community and its dependent rows atomically.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteCascade(ctx, id)
}

// Join enrolls the caller. Idempotent.
func (s *Service) Join(ctx context.Context, communityID, userID int64) error {
	return s.repo.Join(ctx, communityID, userID)
}

// Leave removes the caller's membership. Idempotent.
func (s *Service) Leave(ctx context.Context, communityID, userID int64) error {
	return s.repo.Leave(ctx, communityID, userID)
}

// IsMember reports whether a user belongs to a community.
func (s *Service) IsMember(ctx context.Context, communityID, userID int64) (bool, error) {
	return s.repo.IsMember(ctx, communityID, userID)
}

// MembersResult pairs a page of members with pagination metadata.
type MembersResult struct {
	Members    []Member          `json:"members"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListMembers returns a page of members.
func (s *Service) ListMembers(ctx context.Context, communityID int64, page, perPage int) (*MembersResult, error) {
	if _, err := s.repo.CreatorOf(ctx, communityID); err != nil {
		return nil, err
	}
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListMembers(ctx, communityID, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Member{}
	}
	return &MembersResult{Members: items, Pagination: shared.NewPagination(p.Page, p.PerPage, total)}, nil
}

// Grant stores an explicit scoped permission. Grants to the creator are
// rejected: ownership already supersedes every grant.
func (s *Service) Grant(ctx context.Context, communityID, userID int64, permission string, grantedBy int64) error {
	if !authz.IsRecognizedPermission(authz.Permission(permission)) {
		return httpx.Public(httpx.ErrValidation, "Unknown permission")
	}
	creator, err := s.repo.CreatorOf(ctx, communityID)
	if err != nil {
		return err
	}
	if creator == userID {
		return httpx.Public(httpx.ErrValidation, "The community creator already holds every permission")
	}
	return s.repo.GrantPermission(ctx, communityID, userID, permission, grantedBy)
}

// Revoke removes an explicit scoped permission.
func (s *Service) Revoke(ctx context.Context, communityID, userID int64, permission string) error {
	if !authz.IsRecognizedPermission(authz.Permission(permission)) {
		return httpx.Public(httpx.ErrValidation, "Unknown permission")
	}
	return s.repo.RevokePermission(ctx, communityID, userID, permission)
}
