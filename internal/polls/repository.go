package polls

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/agora-social/agora/internal/platform/db"
	"github.com/agora-social/agora/internal/platform/httpx"
)

// Repository defines persistence operations for the polls module.
type Repository interface {
	Create(ctx context.Context, communityID, createdBy int64, question string, closesAt *time.Time, options []string) (*Poll, error)
	Get(ctx context.Context, id int64) (*Poll, error)
	ListByCommunity(ctx context.Context, communityID int64, limit, offset int) ([]Poll, int, error)
	CreatorOf(ctx context.Context, id int64) (int64, error)
	CommunityOwnerOf(ctx context.Context, id int64) (int64, error)
	CastVote(ctx context.Context, pollID, userID, optionID int64) error
	Close(ctx context.Context, id int64) error
	CountVotes(ctx context.Context, pollID int64) (*Tally, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts the poll and its options in one transaction.
func (r *PGRepository) Create(ctx context.Context, communityID, createdBy int64, question string, closesAt *time.Time, options []string) (*Poll, error) {
	var poll Poll
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO polls (community_id, created_by, question, is_closed, closes_at, created_at)
			 VALUES ($1, $2, $3, FALSE, $4, NOW())
			 RETURNING id, community_id, created_by, question, is_closed, closes_at, created_at`,
			communityID, createdBy, question, closesAt,
		).Scan(&poll.ID, &poll.CommunityID, &poll.CreatedBy, &poll.Question, &poll.IsClosed, &poll.ClosesAt, &poll.CreatedAt)
		if err != nil {
			return err
		}
		for i, label := range options {
			var opt Option
			err := tx.QueryRow(ctx,
				`INSERT INTO poll_options (poll_id, label, position) VALUES ($1, $2, $3)
				 RETURNING id, poll_id, label, position`,
				poll.ID, label, i,
			).Scan(&opt.ID, &opt.PollID, &opt.Label, &opt.Position)
			if err != nil {
				return err
			}
			poll.Options = append(poll.Options, opt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// Get fetches a poll with its options.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Poll, error) {
	var poll Poll
	err := r.pool.QueryRow(ctx,
		`SELECT id, community_id, created_by, question, is_closed, closes_at, created_at FROM polls WHERE id = $1`,
		id,
	).Scan(&poll.ID, &poll.CommunityID, &poll.CreatedBy, &poll.Question, &poll.IsClosed, &poll.ClosesAt, &poll.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.Public(httpx.ErrNotFound, "Poll not found")
		}
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, poll_id, label, position FROM poll_options WHERE poll_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var opt Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Label, &opt.Position); err != nil {
			return nil, err
		}
		poll.Options = append(poll.Options, opt)
	}
	return &poll, rows.Err()
}

// ListByCommunity returns polls for a community, newest first.
func (r *PGRepository) ListByCommunity(ctx context.Context, communityID int64, limit, offset int) ([]Poll, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM polls WHERE community_id = $1`, communityID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, community_id, created_by, question, is_closed, closes_at, created_at
		 FROM polls WHERE community_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		communityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Poll
	for rows.Next() {
		var poll Poll
		if err := rows.Scan(&poll.ID, &poll.CommunityID, &poll.CreatedBy, &poll.Question, &poll.IsClosed, &poll.ClosesAt, &poll.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, poll)
	}
	return out, total, rows.Err()
}

// CreatorOf returns the creator of a poll.
func (r *PGRepository) CreatorOf(ctx context.Context, id int64) (int64, error) {
	var creator int64
	err := r.pool.QueryRow(ctx, `SELECT created_by FROM polls WHERE id = $1`, id).Scan(&creator)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Poll not found")
		}
		return 0, err
	}
	return creator, nil
}

// CommunityOwnerOf returns the creator of the community a poll belongs to.
func (r *PGRepository) CommunityOwnerOf(ctx context.Context, id int64) (int64, error) {
	var creator int64
	err := r.pool.QueryRow(ctx,
		`SELECT c.created_by FROM polls p JOIN communities c ON c.id = p.community_id WHERE p.id = $1`,
		id).Scan(&creator)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, httpx.Public(httpx.ErrNotFound, "Poll not found")
		}
		return 0, err
	}
	return creator, nil
}

// CastVote records or moves the caller's vote. One row per (poll, user);
// the unique key settles concurrent votes without app-level locks.
func (r *PGRepository) CastVote(ctx context.Context, pollID, userID, optionID int64) error {
	var belongs bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM poll_options WHERE id = $1 AND poll_id = $2)`,
		optionID, pollID).Scan(&belongs)
	if err != nil {
		return err
	}
	if !belongs {
		return httpx.Public(httpx.ErrValidation, "Option does not belong to this poll")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO poll_votes (poll_id, user_id, option_id, cast_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (poll_id, user_id) DO UPDATE SET option_id = EXCLUDED.option_id, cast_at = NOW()`,
		pollID, userID, optionID)
	return err
}

// Close marks a poll closed. Closing twice is a no-op.
func (r *PGRepository) Close(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE polls SET is_closed = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.Public(httpx.ErrNotFound, "Poll not found")
	}
	return nil
}

// CountVotes tallies votes per option.
func (r *PGRepository) CountVotes(ctx context.Context, pollID int64) (*Tally, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT option_id, COUNT(*) FROM poll_votes WHERE poll_id = $1 GROUP BY option_id`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tally := &Tally{PollID: pollID, ByOption: make(map[int64]int)}
	for rows.Next() {
		var optionID int64
		var count int
		if err := rows.Scan(&optionID, &count); err != nil {
			return nil, err
		}
		tally.ByOption[optionID] = count
		tally.TotalVotes += count
	}
	return tally, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
