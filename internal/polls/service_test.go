package polls

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora/internal/platform/httpx"
)

type mockRepository struct {
	polls  map[int64]*Poll
	votes  map[int64]map[int64]int64 // pollID -> userID -> optionID
	nextID int64

	countVotesCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		polls:  make(map[int64]*Poll),
		votes:  make(map[int64]map[int64]int64),
		nextID: 1,
	}
}

func (m *mockRepository) Create(_ context.Context, communityID, createdBy int64, question string, closesAt *time.Time, options []string) (*Poll, error) {
	p := &Poll{
		ID:          m.nextID,
		CommunityID: communityID,
		CreatedBy:   createdBy,
		Question:    question,
		ClosesAt:    closesAt,
		CreatedAt:   time.Now(),
	}
	m.nextID++
	for i, label := range options {
		p.Options = append(p.Options, Option{ID: m.nextID, PollID: p.ID, Label: label, Position: i})
		m.nextID++
	}
	m.polls[p.ID] = p
	m.votes[p.ID] = make(map[int64]int64)
	return p, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Poll, error) {
	p, ok := m.polls[id]
	if !ok {
		return nil, httpx.Public(httpx.ErrNotFound, "Poll not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) ListByCommunity(_ context.Context, communityID int64, _, _ int) ([]Poll, int, error) {
	var out []Poll
	for _, p := range m.polls {
		if p.CommunityID == communityID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) CreatorOf(_ context.Context, id int64) (int64, error) {
	p, ok := m.polls[id]
	if !ok {
		return 0, httpx.Public(httpx.ErrNotFound, "Poll not found")
	}
	return p.CreatedBy, nil
}

func (m *mockRepository) CommunityOwnerOf(_ context.Context, id int64) (int64, error) {
	if _, ok := m.polls[id]; !ok {
		return 0, httpx.Public(httpx.ErrNotFound, "Poll not found")
	}
	return 0, nil
}

func (m *mockRepository) CastVote(_ context.Context, pollID, userID, optionID int64) error {
	p, ok := m.polls[pollID]
	if !ok {
		return httpx.Public(httpx.ErrNotFound, "Poll not found")
	}
	valid := false
	for _, opt := range p.Options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return httpx.Public(httpx.ErrValidation, "Option does not belong to this poll")
	}
	m.votes[pollID][userID] = optionID
	return nil
}

func (m *mockRepository) Close(_ context.Context, id int64) error {
	p, ok := m.polls[id]
	if !ok {
		return httpx.Public(httpx.ErrNotFound, "Poll not found")
	}
	p.IsClosed = true
	return nil
}

func (m *mockRepository) CountVotes(_ context.Context, pollID int64) (*Tally, error) {
	m.countVotesCalls++
	tally := &Tally{PollID: pollID, ByOption: make(map[int64]int)}
	for _, optionID := range m.votes[pollID] {
		tally.ByOption[optionID]++
		tally.TotalVotes++
	}
	return tally, nil
}

var _ Repository = (*mockRepository)(nil)

type staticMembers map[int64]bool

func (s staticMembers) IsMember(_ context.Context, _, userID int64) (bool, error) {
	return s[userID], nil
}

func newTestService(t *testing.T, repo *mockRepository, members staticMembers) *Service {
	t.Helper()
	return NewService(repo, members, NewTallyCache(nil, 0))
}

func TestCreateOptionBounds(t *testing.T) {
	svc := newTestService(t, newMockRepository(), staticMembers{})
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, 7, "One option?", nil, []string{"yes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	eleven := make([]string, 11)
	for i := range eleven {
		eleven[i] = "opt"
	}
	_, err = svc.Create(ctx, 1, 7, "Too many?", nil, eleven)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = svc.Create(ctx, 1, 7, "Just right?", nil, []string{"yes", "no"})
	require.NoError(t, err)
}

func TestCreateRejectsPastCloseTime(t *testing.T) {
	svc := newTestService(t, newMockRepository(), staticMembers{})
	past := time.Now().Add(-time.Minute)

	_, err := svc.Create(context.Background(), 1, 7, "q?", &past, []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestVoteUpsert(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(t, repo, staticMembers{8: true})
	ctx := context.Background()

	poll, err := svc.Create(ctx, 1, 7, "q?", nil, []string{"a", "b"})
	require.NoError(t, err)

	tally, err := svc.Vote(ctx, poll.ID, 8, poll.Options[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.TotalVotes)
	assert.Equal(t, 1, tally.ByOption[poll.Options[0].ID])

	// A second vote moves, never duplicates.
	tally, err = svc.Vote(ctx, poll.ID, 8, poll.Options[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.TotalVotes)
	assert.Equal(t, 0, tally.ByOption[poll.Options[0].ID])
	assert.Equal(t, 1, tally.ByOption[poll.Options[1].ID])
}

func TestVoteRequiresMembership(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(t, repo, staticMembers{})
	ctx := context.Background()

	poll, err := svc.Create(ctx, 1, 7, "q?", nil, []string{"a", "b"})
	require.NoError(t, err)

	_, err = svc.Vote(ctx, poll.ID, 8, poll.Options[0].ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
	assert.Equal(t, "Only community members can vote", httpx.PublicMessage(err, ""))
}

func TestVoteOnClosedPoll(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(t, repo, staticMembers{8: true})
	ctx := context.Background()

	poll, err := svc.Create(ctx, 1, 7, "q?", nil, []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx, poll.ID))

	_, err = svc.Vote(ctx, poll.ID, 8, poll.Options[0].ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestVoteAfterCloseTime(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(t, repo, staticMembers{8: true})
	ctx := context.Background()

	soon := time.Now().Add(50 * time.Millisecond)
	poll, err := svc.Create(ctx, 1, 7, "q?", &soon, []string{"a", "b"})
	require.NoError(t, err)

	svc.now = func() time.Time { return soon.Add(time.Second) }
	_, err = svc.Vote(ctx, poll.ID, 8, poll.Options[0].ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestTallyCacheReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMockRepository()
	svc := NewService(repo, staticMembers{8: true}, NewTallyCache(client, time.Minute))
	ctx := context.Background()

	poll, err := svc.Create(ctx, 1, 7, "q?", nil, []string{"a", "b"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, poll.ID)
	require.NoError(t, err)
	first := repo.countVotesCalls

	// Second read is served from the cache.
	_, err = svc.Get(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, first, repo.countVotesCalls)

	// Voting invalidates, so the next read recomputes.
	_, err = svc.Vote(ctx, poll.ID, 8, poll.Options[0].ID)
	require.NoError(t, err)
	afterVote := repo.countVotesCalls

	res, err := svc.Get(ctx, poll.ID)
	require.NoError(t, err)
	assert.Greater(t, repo.countVotesCalls, first)
	assert.Equal(t, afterVote+1, repo.countVotesCalls)
	assert.Equal(t, 1, res.Tally.TotalVotes)
}

func TestTallyCacheFallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewTallyCache(client, time.Minute)
	mr.SetError("LOADING Redis is loading the dataset in memory")

	calls := 0
	tally, err := cache.Fetch(context.Background(), 5, func(context.Context) (*Tally, error) {
		calls++
		return &Tally{PollID: 5, TotalVotes: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, tally.TotalVotes)
}
