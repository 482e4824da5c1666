package communities

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora/internal/platform/httpx"
)

type mockRepository struct {
	communities map[int64]*Community
	members     map[int64]map[int64]bool
	grants      map[string]bool
	nextID      int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		communities: make(map[int64]*Community),
		members:     make(map[int64]map[int64]bool),
		grants:      make(map[string]bool),
		nextID:      1,
	}
}

func grantKey(communityID, userID int64, permission string) string {
	return fmt.Sprintf("%d/%d/%s", communityID, userID, permission)
}

func (m *mockRepository) Create(_ context.Context, name, slug, description string, createdBy int64) (*Community, error) {
	for _, c := range m.communities {
		if c.Name == name {
			return nil, httpx.Public(httpx.ErrDuplicate, "A community with this name already exists")
		}
	}
	c := &Community{ID: m.nextID, Name: name, Slug: slug, Description: description, CreatedBy: createdBy, MemberCount: 1}
	m.nextID++
	m.communities[c.ID] = c
	m.members[c.ID] = map[int64]bool{createdBy: true}
	return c, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Community, error) {
	c, ok := m.communities[id]
	if !ok {
		return nil, httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, _, _ int) ([]Community, int, error) {
	var out []Community
	for _, c := range m.communities {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Update(_ context.Context, id int64, name, description string) (*Community, error) {
	c, ok := m.communities[id]
	if !ok {
		return nil, httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	c.Name, c.Description = name, description
	cp := *c
	return &cp, nil
}

func (m *mockRepository) DeleteCascade(_ context.Context, id int64) error {
	if _, ok := m.communities[id]; !ok {
		return httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	delete(m.communities, id)
	delete(m.members, id)
	return nil
}

func (m *mockRepository) CreatorOf(_ context.Context, id int64) (int64, error) {
	c, ok := m.communities[id]
	if !ok {
		return 0, httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	return c.CreatedBy, nil
}

func (m *mockRepository) Join(_ context.Context, communityID, userID int64) error {
	if _, ok := m.communities[communityID]; !ok {
		return httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	m.members[communityID][userID] = true
	return nil
}

func (m *mockRepository) Leave(_ context.Context, communityID, userID int64) error {
	if _, ok := m.communities[communityID]; !ok {
		return httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	delete(m.members[communityID], userID)
	return nil
}

func (m *mockRepository) IsMember(_ context.Context, communityID, userID int64) (bool, error) {
	return m.members[communityID][userID], nil
}

func (m *mockRepository) ListMembers(_ context.Context, communityID int64, _, _ int) ([]Member, int, error) {
	var out []Member
	for userID := range m.members[communityID] {
		out = append(out, Member{UserID: userID, CommunityID: communityID})
	}
	return out, len(out), nil
}

func (m *mockRepository) GrantPermission(_ context.Context, communityID, userID int64, permission string, _ int64) error {
	m.grants[grantKey(communityID, userID, permission)] = true
	return nil
}

func (m *mockRepository) RevokePermission(_ context.Context, communityID, userID int64, permission string) error {
	key := grantKey(communityID, userID, permission)
	if !m.grants[key] {
		return httpx.Public(httpx.ErrNotFound, "Permission grant not found")
	}
	delete(m.grants, key)
	return nil
}

var _ Repository = (*mockRepository)(nil)

func TestCreateEnrollsCreator(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, 7, "Café Lovers", "coffee talk")
	require.NoError(t, err)
	assert.Equal(t, "cafe-lovers", c.Slug)

	member, err := svc.IsMember(ctx, c.ID, 7)
	require.NoError(t, err)
	assert.True(t, member)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), 7, "  ", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = svc.Create(context.Background(), 7, "!!!", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateDuplicateName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, "Gophers", "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, 8, "Gophers", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrDuplicate))
}

func TestGrantRejectsUnknownPermission(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, 7, "Gophers", "")
	require.NoError(t, err)

	err = svc.Grant(ctx, c.ID, 8, "rule_the_world", 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestGrantToCreatorRejected(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, 7, "Gophers", "")
	require.NoError(t, err)

	err = svc.Grant(ctx, c.ID, 7, "edit", 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestGrantAndRevoke(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, 7, "Gophers", "")
	require.NoError(t, err)

	require.NoError(t, svc.Grant(ctx, c.ID, 8, "edit", 7))
	require.NoError(t, svc.Revoke(ctx, c.ID, 8, "edit"))

	err = svc.Revoke(ctx, c.ID, 8, "edit")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, 7, "Gophers", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))

	err = svc.Delete(ctx, c.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Café Lovers":      "cafe-lovers",
		"  Go  Gophers  ":  "go-gophers",
		"UPPER lower 123":  "upper-lower-123",
		"déjà vu!":         "deja-vu",
		"---":              "",
		"multi--dash  mix": "multi-dash-mix",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}
