package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agora-social/agora/internal/platform/httpx"
)

// ErrInvalidCredentials is returned for every sign-in failure so callers
// cannot probe which sub-condition failed.
var ErrInvalidCredentials = httpx.Public(httpx.ErrUnauthorized, "Invalid email or password")

// Service wraps account and session business rules.
type Service struct {
	repo       Repository
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, sessionTTL time.Duration) *Service {
	return &Service{repo: repo, sessionTTL: sessionTTL, now: time.Now}
}

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, email, displayName, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, email, displayName, string(hash))
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// StartSession mints an opaque token and persists the session row the
// gateway will validate on every privileged request.
func (s *Service) StartSession(ctx context.Context, userID int64, ip, ua string) (*SessionToken, error) {
	token := uuid.NewString()
	expiresAt := s.now().Add(s.sessionTTL)
	if err := s.repo.CreateSession(ctx, token, userID, expiresAt, ip, ua); err != nil {
		return nil, err
	}
	return &SessionToken{Token: token, ExpiresAt: expiresAt}, nil
}

// EndSession deactivates the session for the given token.
func (s *Service) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return httpx.Public(httpx.ErrUnauthorized, "Missing session token")
	}
	return s.repo.DeactivateSession(ctx, token)
}
