package moderation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/agora-social/agora/internal/platform/db"
	"github.com/agora-social/agora/internal/platform/httpx"
)

// Repository persists reports and global role assignments.
type Repository interface {
	FileReport(ctx context.Context, postID, reporterID int64, reason string, hideThreshold int) (hidden bool, err error)
	ListReports(ctx context.Context, status string, limit, offset int) ([]Report, int, error)
	ResolveReport(ctx context.Context, id, resolverID int64, status string) (*Report, error)
	SetPostHidden(ctx context.Context, postID int64, hidden bool) error
	AssignRole(ctx context.Context, userID int64, role string) error
	RevokeRole(ctx context.Context, userID int64, role string) error
	ListAdmins(ctx context.Context) ([]AdminGrant, error)
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

const reportColumns = `id, post_id, reporter_id, reason, status, created_at, resolved_at, resolved_by`

// FileReport inserts a report and, inside the same transaction, hides the
// post once its open-report count reaches the threshold. The unique key on
// (post_id, reporter_id) rejects repeat reports from the same user.
func (r *PGRepository) FileReport(ctx context.Context, postID, reporterID int64, reason string, hideThreshold int) (bool, error) {
	var hidden bool
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var alreadyHidden bool
		err := tx.QueryRow(ctx, `SELECT is_hidden FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&alreadyHidden)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return httpx.Public(httpx.ErrNotFound, "Post not found")
			}
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO reports (post_id, reporter_id, reason, status) VALUES ($1, $2, $3, $4)`,
			postID, reporterID, reason, StatusOpen)
		if err != nil {
			if platformdb.IsUniqueViolation(err) {
				return httpx.Public(httpx.ErrDuplicate, "You have already reported this post")
			}
			return err
		}
		if alreadyHidden {
			return nil
		}
		var open int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM reports WHERE post_id = $1 AND status = $2`,
			postID, StatusOpen).Scan(&open); err != nil {
			return err
		}
		if open >= hideThreshold {
			if _, err := tx.Exec(ctx, `UPDATE posts SET is_hidden = true WHERE id = $1`, postID); err != nil {
				return err
			}
			hidden = true
		}
		return nil
	})
	return hidden, err
}

// reportListQueries builds the count and page queries for ListReports.
// The count query binds its own placeholders: it must not reference
// ordinals that only the paged query supplies.
func reportListQueries(status string, limit, offset int) (string, []any, string, []any) {
	countQuery := `SELECT COUNT(*) FROM reports`
	var countArgs []any
	listQuery := `SELECT ` + reportColumns + ` FROM reports`
	listArgs := []any{limit, offset}
	if status != "" {
		countQuery += ` WHERE status = $1`
		countArgs = append(countArgs, status)
		listQuery += ` WHERE status = $3`
		listArgs = append(listArgs, status)
	}
	listQuery += ` ORDER BY created_at ASC LIMIT $1 OFFSET $2`
	return countQuery, countArgs, listQuery, listArgs
}

// ListReports returns a page of reports, optionally filtered by status.
func (r *PGRepository) ListReports(ctx context.Context, status string, limit, offset int) ([]Report, int, error) {
	countQuery, countArgs, listQuery, listArgs := reportListQueries(status, limit, offset)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.PostID, &rep.ReporterID, &rep.Reason, &rep.Status, &rep.CreatedAt, &rep.ResolvedAt, &rep.ResolvedBy); err != nil {
			return nil, 0, err
		}
		out = append(out, rep)
	}
	return out, total, rows.Err()
}

// ResolveReport closes an open report as dismissed or upheld.
func (r *PGRepository) ResolveReport(ctx context.Context, id, resolverID int64, status string) (*Report, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE reports
		 SET status = $2, resolved_at = now(), resolved_by = $3
		 WHERE id = $1 AND status = $4
		 RETURNING `+reportColumns,
		id, status, resolverID, StatusOpen)
	var rep Report
	err := row.Scan(&rep.ID, &rep.PostID, &rep.ReporterID, &rep.Reason, &rep.Status, &rep.CreatedAt, &rep.ResolvedAt, &rep.ResolvedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.Public(httpx.ErrNotFound, "Open report not found")
		}
		return nil, err
	}
	return &rep, nil
}

// SetPostHidden flips a post's hidden flag.
func (r *PGRepository) SetPostHidden(ctx context.Context, postID int64, hidden bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET is_hidden = $2 WHERE id = $1`, postID, hidden)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.Public(httpx.ErrNotFound, "Post not found")
	}
	return nil
}

// AssignRole grants a global role to a user.
func (r *PGRepository) AssignRole(ctx context.Context, userID int64, role string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return httpx.Public(httpx.ErrNotFound, "User not found")
	}
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO admin_roles (user_id, role) VALUES ($1, $2) ON CONFLICT (user_id, role) DO NOTHING`,
		userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.Public(httpx.ErrDuplicate, "User already holds this role")
	}
	return nil
}

// RevokeRole removes a global role from a user.
func (r *PGRepository) RevokeRole(ctx context.Context, userID int64, role string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admin_roles WHERE user_id = $1 AND role = $2`, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.Public(httpx.ErrNotFound, "Role assignment not found")
	}
	return nil
}

// ListAdmins returns every global role assignment with the holder's email.
func (r *PGRepository) ListAdmins(ctx context.Context) ([]AdminGrant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ar.user_id, u.email, ar.role, ar.granted_at
		 FROM admin_roles ar JOIN users u ON u.id = ar.user_id
		 ORDER BY ar.granted_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AdminGrant
	for rows.Next() {
		var g AdminGrant
		if err := rows.Scan(&g.UserID, &g.Email, &g.Role, &g.GrantedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
