package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/agora-social/agora/internal/platform/db"
	"github.com/agora-social/agora/internal/platform/httpx"
)

// Repository defines persistence operations for the posts module.
type Repository interface {
	Create(ctx context.Context, authorID int64, communityID *int64, title, body string) (*Post, error)
	Get(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, f ListFilters) ([]Post, int, error)
	Update(ctx context.Context, id int64, title, body string) (*Post, error)
	DeleteCascade(ctx context.Context, id int64) error
	AuthorOf(ctx context.Context, id int64) (int64, error)
	ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error)
	AddComment(ctx context.Context, postID, authorID int64, body string) (*Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	ListComments(ctx context.Context, postID int64, limit, offset int) ([]Comment, int, error)
	CommentAuthor(ctx context.Context, commentID int64) (int64, error)
	CommentPostAuthor(ctx context.Context, commentID int64) (int64, error)
}

const postColumns = `p.id, p.author_id, p.community_id, p.title, p.body, p.is_hidden,
	(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS like_count,
	p.created_at, p.updated_at`

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.CommunityID, &p.Title, &p.Body, &p.IsHidden, &p.LikeCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.Public(httpx.ErrNotFound, "Post not found")
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a post.
func (r *PGRepository) Create(ctx context.Context, authorID int64, communityID *int64, title, body string) (*Post, error) {
	var p Post
	err := r.pool.QueryRow(ctx,
		`INSERT INTO posts (author_id, community_id, title, body, is_hidden, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
		 RETURNING id, author_id, community_id, title, body, is_hidden, created_at, updated_at`,
		authorID, communityID, title, body,
	).Scan(&p.ID, &p.AuthorID, &p.CommunityID, &p.Title, &p.Body, &p.IsHidden, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get fetches a post by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Post, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id)
	return scanPost(row)
}

// List returns posts matching the filters, newest first, plus the total.
func (r *PGRepository) List(ctx context.Context, f ListFilters) ([]Post, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if !f.IncludeHidden {
		where = append(where, "p.is_hidden = FALSE")
	}
	if f.CommunityID != nil {
		args = append(args, *f.CommunityID)
		where = append(where, fmt.Sprintf("p.community_id = $%d", len(args)))
	}
	if f.AuthorID != nil {
		args = append(args, *f.AuthorID)
		where = append(where, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts p WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM posts p WHERE %s ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d`,
		postColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.CommunityID, &p.Title, &p.Body, &p.IsHidden, &p.LikeCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Update rewrites title and body of a post.
func (r *PGRepository) Update(ctx context.Context, id int64, title, body string) (*Post, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET title = $2, body = $3, updated_at = NOW() WHERE id = $1`,
		id, title, body)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, httpx.Public(httpx.ErrNotFound, "Post not found")
	}
	return r.Get(ctx, id)
}

// DeleteCascade removes a post together with its likes, comments and
// reports in one transaction.
func (r *PGRepository) DeleteCascade(ctx context.Context, id int64) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return httpx.Public(httpx.ErrNotFound, "Post not found")
		}
		for _, stmt := range []string{
			`DELETE FROM post_likes WHERE post_id = $1`,
			`DELETE FROM comments WHERE post_id = $1`,
			`DELETE FROM reports WHERE post_id = $1`,
			`DELETE FROM posts WHERE id = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// AuthorOf returns the author of a post.
func (r *PGRepository) AuthorOf(ctx context.Context, id int64) (int64, error) {
	var author int64
	err := r.pool.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, id).Scan(&author)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Post not found")
		}
		return 0, err
	}
	return author, nil
}

// ToggleLike flips the caller's like on a post. Concurrent toggles are
// serialized by the primary key on (post_id, user_id).
func (r *PGRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	var liked bool
	var count int
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1 AND is_hidden = FALSE)`, postID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return httpx.Public(httpx.ErrNotFound, "Post not found")
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO post_likes (post_id, user_id, created_at) VALUES ($1, $2, NOW()) ON CONFLICT DO NOTHING`,
			postID, userID)
		if err != nil {
			return err
		}
		liked = tag.RowsAffected() > 0
		if !liked {
			if _, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&count)
	})
	return liked, count, err
}

// AddComment inserts a comment on an existing, visible post.
func (r *PGRepository) AddComment(ctx context.Context, postID, authorID int64, body string) (*Comment, error) {
	var c Comment
	err := r.pool.QueryRow(ctx,
		`INSERT INTO comments (post_id, author_id, body, created_at)
		 SELECT $1, $2, $3, NOW() WHERE EXISTS (SELECT 1 FROM posts WHERE id = $1 AND is_hidden = FALSE)
		 RETURNING id, post_id, author_id, body, created_at`,
		postID, authorID, body,
	).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.Public(httpx.ErrNotFound, "Post not found")
		}
		return nil, err
	}
	return &c, nil
}

// DeleteComment removes a comment by id.
func (r *PGRepository) DeleteComment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.Public(httpx.ErrNotFound, "Comment not found")
	}
	return nil
}

// ListComments returns comments for a post, oldest first, plus the total.
func (r *PGRepository) ListComments(ctx context.Context, postID int64, limit, offset int) ([]Comment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, post_id, author_id, body, created_at FROM comments WHERE post_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		postID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CommentAuthor returns the author of a comment.
func (r *PGRepository) CommentAuthor(ctx context.Context, commentID int64) (int64, error) {
	var author int64
	err := r.pool.QueryRow(ctx, `SELECT author_id FROM comments WHERE id = $1`, commentID).Scan(&author)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Comment not found")
		}
		return 0, err
	}
	return author, nil
}

// CommentPostAuthor returns the author of the post a comment belongs to.
func (r *PGRepository) CommentPostAuthor(ctx context.Context, commentID int64) (int64, error) {
	var author int64
	err := r.pool.QueryRow(ctx,
		`SELECT p.author_id FROM comments c JOIN posts p ON p.id = c.post_id WHERE c.id = $1`,
		commentID).Scan(&author)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Comment not found")
		}
		return 0, err
	}
	return author, nil
}

var _ Repository = (*PGRepository)(nil)
