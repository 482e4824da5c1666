package communities

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/agora-social/agora/internal/platform/db"
	"github.com/agora-social/agora/internal/platform/httpx"
)

// Repository defines persistence operations for the communities module.
type Repository interface {
	Create(ctx context.Context, name, slug, description string, createdBy int64) (*Community, error)
	Get(ctx context.Context, id int64) (*Community, error)
	List(ctx context.Context, limit, offset int) ([]Community, int, error)
	Update(ctx context.Context, id int64, name, description string) (*Community, error)
	DeleteCascade(ctx context.Context, id int64) error
	CreatorOf(ctx context.Context, id int64) (int64, error)
	Join(ctx context.Context, communityID, userID int64) error
	Leave(ctx context.Context, communityID, userID int64) error
	IsMember(ctx context.Context, communityID, userID int64) (bool, error)
	ListMembers(ctx context.Context, communityID int64, limit, offset int) ([]Member, int, error)
	GrantPermission(ctx context.Context, communityID, userID int64, permission string, grantedBy int64) error
	RevokePermission(ctx context.Context, communityID, userID int64, permission string) error
}

const communityColumns = `c.id, c.name, c.slug, c.description, c.created_by,
	(SELECT COUNT(*) FROM community_members m WHERE m.community_id = c.id) AS member_count,
	c.created_at, c.updated_at`

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func scanCommunity(row pgx.Row) (*Community, error) {
	var c Community
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedBy, &c.MemberCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.Public(httpx.ErrNotFound, "Community not found")
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a community and enrolls the creator as its first member.
func (r *PGRepository) Create(ctx context.Context, name, slug, description string, createdBy int64) (*Community, error) {
	var c Community
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO communities (name, slug, description, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 RETURNING id, name, slug, description, created_by, created_at, updated_at`,
			name, slug, description, createdBy,
		).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			if platformdb.IsUniqueViolation(err) {
				return httpx.Public(httpx.ErrDuplicate, "A community with this name already exists")
			}
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO community_members (community_id, user_id, joined_at) VALUES ($1, $2, NOW())`,
			c.ID, createdBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.MemberCount = 1
	return &c, nil
}

// Get fetches a community by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Community, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+communityColumns+` FROM communities c WHERE c.id = $1`, id)
	return scanCommunity(row)
}

// List returns communities ordered by member count, plus the total.
func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]Community, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM communities`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+communityColumns+` FROM communities c ORDER BY member_count DESC, c.id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Community
	for rows.Next() {
		var c Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedBy, &c.MemberCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update rewrites name and description.
func (r *PGRepository) Update(ctx context.Context, id int64, name, description string) (*Community, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE communities SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`,
		id, name, description)
	if err != nil {
		if platformdb.IsUniqueViolation(err) {
			return nil, httpx.Public(httpx.ErrDuplicate, "A community with this name already exists")
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	return r.Get(ctx, id)
}

// DeleteCascade removes a community with its members, grants and polls in
// one transaction. Posts keep their rows but lose the community reference.
func (r *PGRepository) DeleteCascade(ctx context.Context, id int64) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM communities WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return httpx.Public(httpx.ErrNotFound, "Community not found")
		}
		for _, stmt := range []string{
			`DELETE FROM poll_votes WHERE poll_id IN (SELECT id FROM polls WHERE community_id = $1)`,
			`DELETE FROM poll_options WHERE poll_id IN (SELECT id FROM polls WHERE community_id = $1)`,
			`DELETE FROM polls WHERE community_id = $1`,
			`DELETE FROM community_permissions WHERE community_id = $1`,
			`DELETE FROM community_members WHERE community_id = $1`,
			`UPDATE posts SET community_id = NULL WHERE community_id = $1`,
			`DELETE FROM communities WHERE id = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreatorOf returns the creator of a community.
func (r *PGRepository) CreatorOf(ctx context.Context, id int64) (int64, error) {
	var creator int64
	err := r.pool.QueryRow(ctx, `SELECT created_by FROM communities WHERE id = $1`, id).Scan(&creator)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Community not found")
		}
		return 0, err
	}
	return creator, nil
}

// Join enrolls a user; joining twice is a no-op.
func (r *PGRepository) Join(ctx context.Context, communityID, userID int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM communities WHERE id = $1)`, communityID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return httpx.Public(httpx.ErrNotFound, "Community not found")
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO community_members (community_id, user_id, joined_at) VALUES ($1, $2, NOW()) ON CONFLICT DO NOTHING`,
		communityID, userID)
	return err
}

// Leave removes a membership; leaving twice is a no-op.
func (r *PGRepository) Leave(ctx context.Context, communityID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM community_members WHERE community_id = $1 AND user_id = $2`,
		communityID, userID)
	return err
}

// IsMember reports whether a user belongs to a community.
func (r *PGRepository) IsMember(ctx context.Context, communityID, userID int64) (bool, error) {
	var member bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM community_members WHERE community_id = $1 AND user_id = $2)`,
		communityID, userID).Scan(&member)
	return member, err
}

// ListMembers returns a page of members, earliest joiners first.
func (r *PGRepository) ListMembers(ctx context.Context, communityID int64, limit, offset int) ([]Member, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM community_members WHERE community_id = $1`, communityID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, community_id, joined_at FROM community_members WHERE community_id = $1 ORDER BY joined_at, user_id LIMIT $2 OFFSET $3`,
		communityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.CommunityID, &m.JoinedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// GrantPermission stores an explicit grant; granting twice is a no-op.
func (r *PGRepository) GrantPermission(ctx context.Context, communityID, userID int64, permission string, grantedBy int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO community_permissions (community_id, user_id, permission, granted_by, created_at)
		 VALUES ($1, $2, $3, $4, NOW()) ON CONFLICT DO NOTHING`,
		communityID, userID, permission, grantedBy)
	return err
}

// RevokePermission removes an explicit grant.
func (r *PGRepository) RevokePermission(ctx context.Context, communityID, userID int64, permission string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM community_permissions WHERE community_id = $1 AND user_id = $2 AND permission = $3`,
		communityID, userID, permission)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.Public(httpx.ErrNotFound, "Permission grant not found")
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
