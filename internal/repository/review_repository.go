package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/desert-paths/internal/model"
)

// ReviewRepo persists reviews.  reviews has a unique key on
// (journey_id, user_id) so a second review for the same pair fails
// with ErrDuplicate even when two submissions race.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewSummaryFrom = `SELECT r.id, r.journey_id, r.user_id, r.rating, r.comment, r.is_approved, r.created_at,
	j.title, u.first_name, u.last_name
	FROM reviews r
	JOIN journeys j ON j.id = r.journey_id
	JOIN users u ON u.id = r.user_id`

func scanReviewSummary(row rowScanner) (model.ReviewSummary, error) {
	var (
		s           model.ReviewSummary
		comment     sql.NullString
		first, last string
	)
	err := row.Scan(&s.ID, &s.JourneyID, &s.UserID, &s.Rating, &comment, &s.IsApproved, &s.CreatedAt,
		&s.JourneyTitle, &first, &last)
	if err != nil {
		return s, err
	}
	s.Comment = stringPtr(comment)
	s.AuthorName = strings.TrimSpace(first + " " + last)
	return s, nil
}

// Create inserts rv and fills ID.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (journey_id, user_id, rating, comment, is_approved, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rv.JourneyID, rv.UserID, rv.Rating, nullString(rv.Comment), rv.IsApproved, rv.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// Exists reports whether the user already reviewed the journey.
func (r *ReviewRepo) Exists(ctx context.Context, userID, journeyID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE user_id = ? AND journey_id = ?)`, userID, journeyID).Scan(&exists)
	return exists, err
}

// ReviewedJourneys returns the set of journeys the user has reviewed.
func (r *ReviewRepo) ReviewedJourneys(ctx context.Context, userID uint64) (map[uint64]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT journey_id FROM reviews WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64]bool{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// ListApproved returns approved reviews of a journey, newest first.
func (r *ReviewRepo) ListApproved(ctx context.Context, journeyID uint64) ([]model.ReviewSummary, error) {
	return r.query(ctx, reviewSummaryFrom+` WHERE r.journey_id = ? AND r.is_approved = TRUE ORDER BY r.created_at DESC`, journeyID)
}

// ListAll returns every review for moderation, pending ones first.
func (r *ReviewRepo) ListAll(ctx context.Context) ([]model.ReviewSummary, error) {
	return r.query(ctx, reviewSummaryFrom+` ORDER BY r.is_approved, r.created_at DESC`)
}

func (r *ReviewRepo) query(ctx context.Context, q string, args ...any) ([]model.ReviewSummary, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ReviewSummary{}
	for rows.Next() {
		s, err := scanReviewSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Approve makes the review publicly visible.
func (r *ReviewRepo) Approve(ctx context.Context, id uint64) error {
	return expectOne(r.db.ExecContext(ctx, `UPDATE reviews SET is_approved = TRUE WHERE id = ?`, id))
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id))
}
