// Package communities implements communities, membership and scoped
// permission grants.
package communities

import "time"

// Community is a member-run space for posts and polls. Its creator holds
// every scoped permission implicitly.
type Community struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member is a membership row.
type Member struct {
	UserID      int64     `json:"user_id"`
	CommunityID int64     `json:"community_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Grant is an explicit scoped permission row. Creator capabilities are
// never stored as grants.
type Grant struct {
	UserID      int64     `json:"user_id"`
	CommunityID int64     `json:"community_id"`
	Permission  string    `json:"permission"`
	GrantedBy   int64     `json:"granted_by"`
	CreatedAt   time.Time `json:"created_at"`
}
