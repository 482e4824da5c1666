// Package polls implements community polls and vote tallying.
package polls

import "time"

// Poll is a question with a closed option list, scoped to a community.
type Poll struct {
	ID          int64      `json:"id"`
	CommunityID int64      `json:"community_id"`
	CreatedBy   int64      `json:"created_by"`
	Question    string     `json:"question"`
	IsClosed    bool       `json:"is_closed"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Options     []Option   `json:"options,omitempty"`
}

// Option is one selectable answer.
type Option struct {
	ID       int64  `json:"id"`
	PollID   int64  `json:"poll_id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

// Tally is the vote count per option.
type Tally struct {
	PollID     int64         `json:"poll_id"`
	TotalVotes int           `json:"total_votes"`
	ByOption   map[int64]int `json:"by_option"`
}
