package business

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/agora-social/agora/internal/platform/db"
	"github.com/agora-social/agora/internal/platform/httpx"
)

// Repository persists business profiles and promotions.
type Repository interface {
	CreateProfile(ctx context.Context, ownerID int64, name, description, category, website string) (*Profile, error)
	GetProfile(ctx context.Context, id int64) (*Profile, error)
	ListProfiles(ctx context.Context, category string, limit, offset int) ([]Profile, int, error)
	UpdateProfile(ctx context.Context, id int64, name, description, category, website string) (*Profile, error)
	ProfileOwner(ctx context.Context, id int64) (int64, error)

	CreatePromotion(ctx context.Context, profileID int64, title, description string, startsAt, endsAt time.Time) (*Promotion, error)
	GetPromotion(ctx context.Context, id int64) (*Promotion, error)
	ListPromotions(ctx context.Context, profileID int64, activeOnly bool, limit, offset int) ([]Promotion, int, error)
	SetPromotionActive(ctx context.Context, id int64, active bool) (*Promotion, error)
	DeletePromotion(ctx context.Context, id int64) error
	PromotionOwner(ctx context.Context, id int64) (int64, error)
	ExpirePromotions(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository is the postgres-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

const profileColumns = `id, owner_id, name, description, category, website, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Category, &p.Website, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.Public(httpx.ErrNotFound, "Business profile not found")
		}
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a profile. The unique index on owner_id enforces
// one profile per user.
func (r *PGRepository) CreateProfile(ctx context.Context, ownerID int64, name, description, category, website string) (*Profile, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO business_profiles (owner_id, name, description, category, website)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+profileColumns,
		ownerID, name, description, category, website)
	p, err := scanProfile(row)
	if err != nil {
		if platformdb.IsUniqueViolation(err) {
			return nil, httpx.Public(httpx.ErrDuplicate, "You already have a business profile")
		}
		return nil, err
	}
	return p, nil
}

// GetProfile fetches one profile by id.
func (r *PGRepository) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM business_profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// profileListQueries builds the count and page queries for ListProfiles.
// The count query binds its own placeholders: it must not reference
// ordinals that only the paged query supplies.
func profileListQueries(category string, limit, offset int) (string, []any, string, []any) {
	countQuery := `SELECT COUNT(*) FROM business_profiles`
	var countArgs []any
	listQuery := `SELECT ` + profileColumns + ` FROM business_profiles`
	listArgs := []any{limit, offset}
	if category != "" {
		countQuery += ` WHERE category = $1`
		countArgs = append(countArgs, category)
		listQuery += ` WHERE category = $3`
		listArgs = append(listArgs, category)
	}
	listQuery += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return countQuery, countArgs, listQuery, listArgs
}

// ListProfiles returns a page of profiles, optionally filtered by category.
func (r *PGRepository) ListProfiles(ctx context.Context, category string, limit, offset int) ([]Profile, int, error) {
	countQuery, countArgs, listQuery, listArgs := profileListQueries(category, limit, offset)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Category, &p.Website, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// UpdateProfile rewrites the mutable fields of a profile.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, name, description, category, website string) (*Profile, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE business_profiles
		 SET name = $2, description = $3, category = $4, website = $5, updated_at = now()
		 WHERE id = $1`,
		id, name, description, category, website)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, httpx.Public(httpx.ErrNotFound, "Business profile not found")
	}
	return r.GetProfile(ctx, id)
}

// ProfileOwner returns the owning user of a profile.
func (r *PGRepository) ProfileOwner(ctx context.Context, id int64) (int64, error) {
	var owner int64
	err := r.pool.QueryRow(ctx, `SELECT owner_id FROM business_profiles WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Business profile not found")
		}
		return 0, err
	}
	return owner, nil
}

const promotionColumns = `id, profile_id, title, description, starts_at, ends_at, is_active, created_at`

func scanPromotion(row pgx.Row) (*Promotion, error) {
	var p Promotion
	err := row.Scan(&p.ID, &p.ProfileID, &p.Title, &p.Description, &p.StartsAt, &p.EndsAt, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.Public(httpx.ErrNotFound, "Promotion not found")
		}
		return nil, err
	}
	return &p, nil
}

// CreatePromotion inserts a promotion under a profile. New promotions
// start active.
func (r *PGRepository) CreatePromotion(ctx context.Context, profileID int64, title, description string, startsAt, endsAt time.Time) (*Promotion, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO promotions (profile_id, title, description, starts_at, ends_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, true)
		 RETURNING `+promotionColumns,
		profileID, title, description, startsAt, endsAt)
	return scanPromotion(row)
}

// GetPromotion fetches one promotion by id.
func (r *PGRepository) GetPromotion(ctx context.Context, id int64) (*Promotion, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	return scanPromotion(row)
}

// ListPromotions returns a page of promotions for a profile.
func (r *PGRepository) ListPromotions(ctx context.Context, profileID int64, activeOnly bool, limit, offset int) ([]Promotion, int, error) {
	where := ` WHERE profile_id = $3`
	if activeOnly {
		where += ` AND is_active`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM promotions`+where, limit, offset, profileID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+promotionColumns+` FROM promotions`+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset, profileID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Promotion
	for rows.Next() {
		var p Promotion
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Title, &p.Description, &p.StartsAt, &p.EndsAt, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// SetPromotionActive flips a promotion's active flag.
func (r *PGRepository) SetPromotionActive(ctx context.Context, id int64, active bool) (*Promotion, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE promotions SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, httpx.Public(httpx.ErrNotFound, "Promotion not found")
	}
	return r.GetPromotion(ctx, id)
}

// DeletePromotion removes a promotion.
func (r *PGRepository) DeletePromotion(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.Public(httpx.ErrNotFound, "Promotion not found")
	}
	return nil
}

// PromotionOwner resolves a promotion to the user owning its profile.
func (r *PGRepository) PromotionOwner(ctx context.Context, id int64) (int64, error) {
	var owner int64
	err := r.pool.QueryRow(ctx,
		`SELECT bp.owner_id FROM promotions p JOIN business_profiles bp ON bp.id = p.profile_id WHERE p.id = $1`,
		id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Promotion not found")
		}
		return 0, err
	}
	return owner, nil
}

// ExpirePromotions deactivates promotions whose window has passed.
// Run by the cron sweep.
func (r *PGRepository) ExpirePromotions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE promotions SET is_active = false WHERE is_active AND ends_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
