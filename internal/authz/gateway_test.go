package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora/internal/platform/httpx"
)

type mockStore struct {
	sessions map[string]*Session
	roles    map[int64][]string
	grants   map[int64]map[int64][]string
	creators map[int64]int64

	findSessionCalls int
	userRolesCalls   int
}

func newMockStore() *mockStore {
	return &mockStore{
		sessions: make(map[string]*Session),
		roles:    make(map[int64][]string),
		grants:   make(map[int64]map[int64][]string),
		creators: make(map[int64]int64),
	}
}

func (m *mockStore) FindSession(_ context.Context, token string) (*Session, error) {
	m.findSessionCalls++
	sess, ok := m.sessions[token]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return sess, nil
}

func (m *mockStore) UserRoles(_ context.Context, userID int64) ([]string, error) {
	m.userRolesCalls++
	return m.roles[userID], nil
}

func (m *mockStore) UserCommunityPermissions(_ context.Context, userID, communityID int64) ([]string, error) {
	return m.grants[userID][communityID], nil
}

func (m *mockStore) CommunityCreator(_ context.Context, communityID int64) (int64, error) {
	creator, ok := m.creators[communityID]
	if !ok {
		return 0, httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	return creator, nil
}

type recordedDecisions struct {
	outcomes []string
}

func (r *recordedDecisions) AuthzDecision(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestGateway(store *mockStore, recorder DecisionRecorder) (*Gateway, *Resolver) {
	validator := NewValidator(store)
	validator.now = fixedNow
	resolver := NewResolver(store, store)
	return NewGateway(validator, resolver, recorder), resolver
}

func activeSession(token string, userID int64) *Session {
	return &Session{Token: token, UserID: userID, ExpiresAt: fixedNow().Add(time.Hour), IsActive: true}
}

func TestAuthorizeMissingToken(t *testing.T) {
	store := newMockStore()
	gw, _ := newTestGateway(store, nil)

	_, err := gw.Authorize(context.Background(), "", ValidSession())
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))
	assert.Equal(t, "Missing session token", httpx.PublicMessage(err, ""))
	assert.Zero(t, store.findSessionCalls)
}

func TestAuthorizeUnknownToken(t *testing.T) {
	store := newMockStore()
	gw, _ := newTestGateway(store, nil)

	_, err := gw.Authorize(context.Background(), "nope", ValidSession())
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))
	assert.Equal(t, "Invalid or expired session", httpx.PublicMessage(err, ""))
}

func TestAuthorizeExpiredSession(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = &Session{
		Token:     "t1",
		UserID:    7,
		ExpiresAt: fixedNow().Add(-time.Second),
		IsActive:  true,
	}
	gw, _ := newTestGateway(store, nil)

	_, err := gw.Authorize(context.Background(), "t1", ValidSession())
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired session", httpx.PublicMessage(err, ""))
}

func TestAuthorizeInactiveSession(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = &Session{
		Token:     "t1",
		UserID:    7,
		ExpiresAt: fixedNow().Add(time.Hour),
		IsActive:  false,
	}
	gw, _ := newTestGateway(store, nil)

	_, err := gw.Authorize(context.Background(), "t1", ValidSession())
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired session", httpx.PublicMessage(err, ""))
}

func TestAuthorizeValidSession(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	gw, _ := newTestGateway(store, nil)

	identity, err := gw.Authorize(context.Background(), "t1", ValidSession())
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.UserID)
	assert.False(t, identity.IsAdmin())
}

func TestAuthorizeAnyAdminWithoutRoles(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	gw, _ := newTestGateway(store, nil)

	_, err := gw.Authorize(context.Background(), "t1", AnyAdmin())
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestAuthorizeAnyAdminWithRole(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	store.roles[7] = []string{"content_moderator"}
	gw, _ := newTestGateway(store, nil)

	identity, err := gw.Authorize(context.Background(), "t1", AnyAdmin())
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
	assert.True(t, identity.HasRole(RoleContentModerator))
}

func TestAuthorizeUnrecognizedRoleIgnored(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	store.roles[7] = []string{"intern", "janitor"}
	gw, _ := newTestGateway(store, nil)

	_, err := gw.Authorize(context.Background(), "t1", AnyAdmin())
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestAuthorizeNamedAdminRole(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	store.roles[7] = []string{"category_manager"}
	gw, _ := newTestGateway(store, nil)

	_, err := gw.Authorize(context.Background(), "t1", AdminRole(RoleCategoryManager))
	require.NoError(t, err)

	_, err = gw.Authorize(context.Background(), "t1", AdminRole(RoleSuperAdmin))
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestAuthorizeScopedGrant(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	store.creators[3] = 99
	store.grants[7] = map[int64][]string{3: {"edit"}}
	gw, _ := newTestGateway(store, nil)

	identity, err := gw.Authorize(context.Background(), "t1", Scoped(PermissionEdit, 3))
	require.NoError(t, err)
	assert.True(t, identity.Permissions.Has(PermissionEdit))

	_, err = gw.Authorize(context.Background(), "t1", Scoped(PermissionModerate, 3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestAuthorizeCreatorOverride(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	store.creators[3] = 7
	gw, _ := newTestGateway(store, nil)

	// No grant rows exist, yet the creator holds every permission.
	for _, perm := range AllPermissions() {
		identity, err := gw.Authorize(context.Background(), "t1", Scoped(perm, 3))
		require.NoError(t, err, "permission %s", perm)
		assert.True(t, identity.Permissions.Has(perm))
	}
}

func TestAuthorizeScopedMissingCommunity(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	gw, _ := newTestGateway(store, nil)

	_, err := gw.Authorize(context.Background(), "t1", Scoped(PermissionEdit, 404))
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestAuthorizeOwner(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	gw, resolver := newTestGateway(store, nil)
	resolver.RegisterOwner("post", func(_ context.Context, id int64) (int64, error) {
		if id == 5 {
			return 7, nil
		}
		return 0, httpx.Public(httpx.ErrNotFound, "Post not found")
	})

	_, err := gw.Authorize(context.Background(), "t1", Owner("post", 5))
	require.NoError(t, err)

	_, err = gw.Authorize(context.Background(), "t1", Owner("post", 6))
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestAuthorizeAnyCombinator(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	store.roles[7] = []string{"content_moderator"}
	gw, resolver := newTestGateway(store, nil)
	resolver.RegisterOwner("post", func(_ context.Context, id int64) (int64, error) {
		return 42, nil
	})

	// Not the owner, but holds the moderator role.
	_, err := gw.Authorize(context.Background(), "t1", Any(
		Owner("post", 5),
		AdminRole(RoleContentModerator),
	))
	require.NoError(t, err)
}

func TestAuthorizeAnyPropagatesNotFound(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	gw, resolver := newTestGateway(store, nil)
	resolver.RegisterOwner("post", func(_ context.Context, _ int64) (int64, error) {
		return 0, httpx.Public(httpx.ErrNotFound, "Post not found")
	})

	// Every alternative fails and one failed because the resource is gone:
	// the caller should see 404, not 403.
	_, err := gw.Authorize(context.Background(), "t1", Any(
		Owner("post", 5),
		AdminRole(RoleContentModerator),
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestAuthorizeRecordsOutcomes(t *testing.T) {
	store := newMockStore()
	store.sessions["t1"] = activeSession("t1", 7)
	recorder := &recordedDecisions{}
	gw, _ := newTestGateway(store, recorder)

	_, _ = gw.Authorize(context.Background(), "t1", ValidSession())
	_, _ = gw.Authorize(context.Background(), "bad", ValidSession())
	_, _ = gw.Authorize(context.Background(), "t1", AnyAdmin())

	assert.Equal(t, []string{"granted", "unauthorized", "forbidden"}, recorder.outcomes)
}

func TestValidatorChecksPresenceBeforeStore(t *testing.T) {
	store := newMockStore()
	validator := NewValidator(store)
	validator.now = fixedNow

	_, err := validator.Validate(context.Background(), "")
	require.Error(t, err)
	assert.Zero(t, store.findSessionCalls)
}
