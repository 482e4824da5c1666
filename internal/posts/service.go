package posts

import (
	"context"
	"strings"

	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/platform/httpx"
	"github.com/agora-social/agora/internal/shared"
)

// Service wraps post business rules. Authorization happens in the gateway
// before any service method runs; visibility of hidden posts is the one
// check that needs the resolved identity and therefore lives here.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a new post authored by the caller.
func (s *Service) Create(ctx context.Context, authorID int64, communityID *int64, title, body string) (*Post, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Title and body are required")
	}
	return s.repo.Create(ctx, authorID, communityID, title, body)
}

// Get fetches a post. Hidden posts are visible only to their author and
// to content moderators; everyone else sees a 404, not a 403, so hiding
// does not leak.
func (s *Service) Get(ctx context.Context, actor *authz.Identity, id int64) (*Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.IsHidden && !s.canSeeHidden(actor, post.AuthorID) {
		return nil, httpx.Public(httpx.ErrNotFound, "Post not found")
	}
	return post, nil
}

// ListResult pairs a page of posts with pagination metadata.
type ListResult struct {
	Posts      []Post            `json:"posts"`
	Pagination shared.Pagination `json:"pagination"`
}

// List returns visible posts for the caller.
func (s *Service) List(ctx context.Context, actor *authz.Identity, f ListFilters) (*ListResult, error) {
	p := shared.NewPagination(f.Page, f.PerPage, 0)
	f.Page, f.PerPage = p.Page, p.PerPage
	f.IncludeHidden = actor.HasRole(authz.RoleContentModerator)
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Post{}
	}
	return &ListResult{Posts: items, Pagination: shared.NewPagination(f.Page, f.PerPage, total)}, nil
}

// Update rewrites a post's title and body.
func (s *Service) Update(ctx context.Context, id int64, title, body string) (*Post, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Title and body are required")
	}
	return s.repo.Update(ctx, id, title, body)
}

// Delete removes a post and its dependent rows atomically.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteCascade(ctx, id)
}

// LikeResult reports the state after a toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// ToggleLike flips the caller's like on a post.
func (s *Service) ToggleLike(ctx context.Context, postID, userID int64) (*LikeResult, error) {
	liked, count, err := s.repo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

// AddComment appends a comment to a visible post.
func (s *Service) AddComment(ctx context.Context, postID, authorID int64, body string) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Comment body is required")
	}
	return s.repo.AddComment(ctx, postID, authorID, body)
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	return s.repo.DeleteComment(ctx, id)
}

// CommentsResult pairs a page of comments with pagination metadata.
type CommentsResult struct {
	Comments   []Comment         `json:"comments"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListComments returns a page of comments for a post.
func (s *Service) ListComments(ctx context.Context, postID int64, page, perPage int) (*CommentsResult, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListComments(ctx, postID, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Comment{}
	}
	return &CommentsResult{Comments: items, Pagination: shared.NewPagination(p.Page, p.PerPage, total)}, nil
}

func (s *Service) canSeeHidden(actor *authz.Identity, authorID int64) bool {
	if actor == nil {
		return false
	}
	return actor.UserID == authorID || actor.HasRole(authz.RoleContentModerator)
}
