package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agora-social/agora/internal/platform/httpx"
)

// PGRepository implements the gateway's read-only stores over PostgreSQL.
// The gateway never writes: sessions are created by the auth module and
// swept by the background worker.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindSession fetches the session row owning the exact token.
func (r *PGRepository) FindSession(ctx context.Context, token string) (*Session, error) {
	var sess Session
	err := r.pool.QueryRow(ctx,
		`SELECT token, user_id, expires_at, is_active FROM sessions WHERE token = $1`,
		token,
	).Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// UserRoles returns all global role rows for the user.
func (r *PGRepository) UserRoles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT role FROM admin_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UserCommunityPermissions returns explicit grant rows for (user, community).
func (r *PGRepository) UserCommunityPermissions(ctx context.Context, userID, communityID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT permission FROM community_permissions WHERE user_id = $1 AND community_id = $2`,
		userID, communityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var perm string
		if err := rows.Scan(&perm); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// CommunityCreator returns the creator of a community.
func (r *PGRepository) CommunityCreator(ctx context.Context, communityID int64) (int64, error) {
	var creator int64
	err := r.pool.QueryRow(ctx, `SELECT created_by FROM communities WHERE id = $1`, communityID).Scan(&creator)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Community not found")
		}
		return 0, err
	}
	return creator, nil
}

var (
	_ SessionStore = (*PGRepository)(nil)
	_ RoleStore    = (*PGRepository)(nil)
	_ GrantStore   = (*PGRepository)(nil)
)
