package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora/internal/platform/httpx"
	_ "github.com/agora-social/agora/testing"
)

type mockRepository struct {
	users    map[string]*User
	sessions map[string]bool // token -> active
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:    make(map[string]*User),
		sessions: make(map[string]bool),
		nextID:   1,
	}
}

func (m *mockRepository) CreateUser(_ context.Context, email, displayName, passwordHash string) (*User, error) {
	if _, ok := m.users[email]; ok {
		return nil, httpx.Public(httpx.ErrDuplicate, "Email already registered")
	}
	u := &User{ID: m.nextID, Email: email, DisplayName: displayName, PasswordHash: passwordHash, IsActive: true}
	m.nextID++
	m.users[email] = u
	return u, nil
}

func (m *mockRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) CreateSession(_ context.Context, token string, _ int64, _ time.Time, _, _ string) error {
	m.sessions[token] = true
	return nil
}

func (m *mockRepository) DeactivateSession(_ context.Context, token string) error {
	if _, ok := m.sessions[token]; ok {
		m.sessions[token] = false
	}
	return nil
}

var _ Repository = (*mockRepository)(nil)

func TestSignUpAndAuthenticate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, " Alice@Example.com ", "Alice", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "s3cret-password", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "alice@example.com", "Alice", "pw-one-two")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "ALICE@example.com", "Imposter", "pw-three-four")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrDuplicate))
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "alice@example.com", "Alice", "s3cret-password")
	require.NoError(t, err)

	// Unknown email and wrong password produce the same message.
	_, err = svc.Authenticate(ctx, "nobody@example.com", "whatever")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", httpx.PublicMessage(err, ""))

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", httpx.PublicMessage(err, ""))
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "alice@example.com", "Alice", "s3cret-password")
	require.NoError(t, err)
	repo.users["alice@example.com"].IsActive = false

	_, err = svc.Authenticate(ctx, "alice@example.com", "s3cret-password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))
}

func TestStartSessionMintsUniqueTokens(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	first, err := svc.StartSession(ctx, 7, "", "")
	require.NoError(t, err)
	second, err := svc.StartSession(ctx, 7, "", "")
	require.NoError(t, err)

	assert.NotEmpty(t, first.Token)
	assert.NotEqual(t, first.Token, second.Token)
	assert.True(t, first.ExpiresAt.After(time.Now()))
}

func TestEndSessionRequiresToken(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	err := svc.EndSession(ctx, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))

	sess, err := svc.StartSession(ctx, 7, "", "")
	require.NoError(t, err)
	require.NoError(t, svc.EndSession(ctx, sess.Token))
	assert.False(t, repo.sessions[sess.Token])

	// Repeating the call is safe.
	require.NoError(t, svc.EndSession(ctx, sess.Token))
}
