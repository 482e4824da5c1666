// Package posts implements the post, like and comment surface.
package posts

import "time"

// Post is a user-authored post, optionally attached to a community.
// Hidden posts (moderation) are invisible to everyone but their author
// and moderators.
type Post struct {
	ID          int64     `json:"id"`
	AuthorID    int64     `json:"author_id"`
	CommunityID *int64    `json:"community_id,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	IsHidden    bool      `json:"is_hidden"`
	LikeCount   int       `json:"like_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment is a flat comment on a post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ListFilters narrows post listings.
type ListFilters struct {
	CommunityID   *int64
	AuthorID      *int64
	IncludeHidden bool
	Page          int
	PerPage       int
}
