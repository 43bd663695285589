package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/desert-paths/internal/model"
)

// StatsRepo answers the back-office dashboard counters.
type StatsRepo struct {
	db       *sql.DB
	bookings *BookingRepo
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db, bookings: NewBookingRepo(db)} }

// Dashboard returns entity counts and the recent bookings.
func (r *StatsRepo) Dashboard(ctx context.Context, recent int) (*model.DashboardCounts, error) {
	var c model.DashboardCounts
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM lands),
		(SELECT COUNT(*) FROM journeys),
		(SELECT COUNT(*) FROM bookings),
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM bookings WHERE status = ?),
		(SELECT COUNT(*) FROM reviews WHERE is_approved = FALSE)`, model.BookingPending).
		Scan(&c.Lands, &c.Journeys, &c.Bookings, &c.Users, &c.PendingBookings, &c.PendingReviews)
	if err != nil {
		return nil, err
	}
	c.RecentBookings, err = r.bookings.List(ctx, BookingFilter{Limit: recent})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
