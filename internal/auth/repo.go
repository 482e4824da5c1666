package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/agora-social/agora/internal/platform/db"
	"github.com/agora-social/agora/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, email, displayName, passwordHash string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error
	DeactivateSession(ctx context.Context, token string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateUser inserts a new account row.
func (r *PGRepository) CreateUser(ctx context.Context, email, displayName, passwordHash string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, display_name, password_hash, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		 RETURNING id, email, display_name, password_hash, is_active, created_at, updated_at`,
		email, displayName, passwordHash,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if platformdb.IsUniqueViolation(err) {
			return nil, httpx.Public(httpx.ErrDuplicate, "Email already registered")
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, display_name, password_hash, is_active, created_at, updated_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateSession persists a new sign-in session.
func (r *PGRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, is_active, ip, ua, created_at)
		 VALUES ($1, $2, $3, TRUE, NULLIF($4, ''), NULLIF($5, ''), NOW())`,
		token, userID, expiresAt.UTC(), ip, ua)
	return err
}

// DeactivateSession marks a session unusable. Repeating the call is safe.
func (r *PGRepository) DeactivateSession(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET is_active = FALSE WHERE token = $1`, token)
	return err
}

// PurgeExpiredSessions deletes sessions that expired before the cutoff or
// were deactivated. Run by the background sweep.
func (r *PGRepository) PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at < $1 OR NOT is_active`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
