package polls

import (
	"context"
	"strings"
	"time"

	"github.com/agora-social/agora/internal/platform/httpx"
	"github.com/agora-social/agora/internal/shared"
)

// MembershipChecker reports community membership. Implemented by the
// communities service.
type MembershipChecker interface {
	IsMember(ctx context.Context, communityID, userID int64) (bool, error)
}

// Service wraps poll business rules.
type Service struct {
	repo    Repository
	members MembershipChecker
	tallies *TallyCache
	now     func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, members MembershipChecker, tallies *TallyCache) *Service {
	return &Service{repo: repo, members: members, tallies: tallies, now: time.Now}
}

// Create inserts a poll with 2 to 10 options.
func (s *Service) Create(ctx context.Context, communityID, createdBy int64, question string, closesAt *time.Time, options []string) (*Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, httpx.Public(httpx.ErrValidation, "Poll question is required")
	}
	labels := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			labels = append(labels, opt)
		}
	}
	if len(labels) < 2 || len(labels) > 10 {
		return nil, httpx.Public(httpx.ErrValidation, "A poll needs between 2 and 10 options")
	}
	if closesAt != nil && !closesAt.After(s.now()) {
		return nil, httpx.Public(httpx.ErrValidation, "Poll close time must be in the future")
	}
	return s.repo.Create(ctx, communityID, createdBy, question, closesAt, labels)
}

// PollResult is a poll together with its current tally.
type PollResult struct {
	Poll  *Poll  `json:"poll"`
	Tally *Tally `json:"tally"`
}

// Get fetches a poll with its tally, served through the cache.
func (s *Service) Get(ctx context.Context, id int64) (*PollResult, error) {
	poll, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tally, err := s.tallies.Fetch(ctx, id, func(ctx context.Context) (*Tally, error) {
		return s.repo.CountVotes(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &PollResult{Poll: poll, Tally: tally}, nil
}

// ListResult pairs a page of polls with pagination metadata.
type ListResult struct {
	Polls      []Poll            `json:"polls"`
	Pagination shared.Pagination `json:"pagination"`
}

// List returns a community's polls.
func (s *Service) List(ctx context.Context, communityID int64, page, perPage int) (*ListResult, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListByCommunity(ctx, communityID, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Poll{}
	}
	return &ListResult{Polls: items, Pagination: shared.NewPagination(p.Page, p.PerPage, total)}, nil
}

// Vote records or moves the caller's vote. Voting requires community
// membership; a poll past its close time rejects votes even before the
// close sweep marks it closed.
func (s *Service) Vote(ctx context.Context, pollID, userID, optionID int64) (*Tally, error) {
	poll, err := s.repo.Get(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.IsClosed || (poll.ClosesAt != nil && !poll.ClosesAt.After(s.now())) {
		return nil, httpx.Public(httpx.ErrValidation, "Poll is closed")
	}
	member, err := s.members.IsMember(ctx, poll.CommunityID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, httpx.Public(httpx.ErrForbidden, "Only community members can vote")
	}
	if err := s.repo.CastVote(ctx, pollID, userID, optionID); err != nil {
		return nil, err
	}
	if err := s.tallies.Invalidate(ctx, pollID); err != nil {
		return nil, err
	}
	return s.repo.CountVotes(ctx, pollID)
}

// Close marks a poll closed and drops its cached tally.
func (s *Service) Close(ctx context.Context, id int64) error {
	if err := s.repo.Close(ctx, id); err != nil {
		return err
	}
	return s.tallies.Invalidate(ctx, id)
}
