package moderation

import "time"

// Report statuses. A report stays open until a moderator resolves it.
const (
	StatusOpen      = "open"
	StatusDismissed = "dismissed"
	StatusUpheld    = "upheld"
)

// Report is a user complaint against a post.
type Report struct {
	ID         int64      `json:"id"`
	PostID     int64      `json:"post_id"`
	ReporterID int64      `json:"reporter_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy *int64     `json:"resolved_by,omitempty"`
}

// AdminGrant is a user's global role assignment.
type AdminGrant struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
}
