package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/desert-paths/internal/model"
)

// BookingRepo persists bookings.  All timestamps are stored in UTC and
// travel_date is a DATE column.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.reference, b.journey_id, b.user_id, b.style_id, b.travel_date, b.guests,
	b.total_cents, b.status, b.payment_method, b.is_paid, b.contact_phone, b.contact_email,
	b.special_requests, b.admin_notes, b.created_at, b.updated_at`

const bookingSummaryFrom = `SELECT ` + bookingColumns + `, j.title, j.slug, s.name, u.first_name, u.last_name
	FROM bookings b
	JOIN journeys j ON j.id = b.journey_id
	JOIN styles s ON s.id = b.style_id
	JOIN users u ON u.id = b.user_id`

func scanBooking(row rowScanner, b *model.Booking, extra ...any) error {
	var (
		special, notes sql.NullString
		updated        sql.NullTime
	)
	dest := []any{
		&b.ID, &b.Reference, &b.JourneyID, &b.UserID, &b.StyleID, &b.TravelDate, &b.Guests,
		&b.TotalCents, &b.Status, &b.PaymentMethod, &b.IsPaid, &b.ContactPhone, &b.ContactEmail,
		&special, &notes, &b.CreatedAt, &updated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	b.SpecialRequests = stringPtr(special)
	b.AdminNotes = stringPtr(notes)
	b.UpdatedAt = timePtr(updated)
	return nil
}

func scanBookingSummary(row rowScanner) (model.BookingSummary, error) {
	var (
		s           model.BookingSummary
		first, last string
	)
	if err := scanBooking(row, &s.Booking, &s.JourneyTitle, &s.JourneySlug, &s.StyleName, &first, &last); err != nil {
		return s, err
	}
	s.CustomerName = strings.TrimSpace(first + " " + last)
	return s, nil
}

// Create inserts b and fills ID and CreatedAt.  A clash on the unique
// reference returns ErrDuplicate.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (reference, journey_id, user_id, style_id, travel_date, guests,
		total_cents, status, payment_method, is_paid, contact_phone, contact_email, special_requests, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, q,
		b.Reference, b.JourneyID, b.UserID, b.StyleID, b.TravelDate.Format("2006-01-02"), b.Guests,
		b.TotalCents, b.Status, b.PaymentMethod, b.IsPaid, b.ContactPhone, b.ContactEmail,
		nullString(b.SpecialRequests), b.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns ErrNotFound when the booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id), &b)
	if err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

// GetSummary returns a booking with journey, style and customer names.
func (r *BookingRepo) GetSummary(ctx context.Context, id uint64) (*model.BookingSummary, error) {
	s, err := scanBookingSummary(r.db.QueryRowContext(ctx, bookingSummaryFrom+` WHERE b.id = ?`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingSummary, error) {
	return r.querySummaries(ctx, bookingSummaryFrom+` WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`, userID)
}

// BookingFilter narrows the back-office booking list.  Zero values mean
// no restriction.
type BookingFilter struct {
	Status model.BookingStatus
	Limit  int
}

// List returns bookings for the back office, newest first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.BookingSummary, error) {
	q := bookingSummaryFrom
	var args []any
	if f.Status != "" {
		q += ` WHERE b.status = ?`
		args = append(args, f.Status)
	}
	q += ` ORDER BY b.created_at DESC, b.id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return r.querySummaries(ctx, q, args...)
}

func (r *BookingRepo) querySummaries(ctx context.Context, q string, args ...any) ([]model.BookingSummary, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingSummary{}
	for rows.Next() {
		s, err := scanBookingSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateStatus sets the booking status unconditionally.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), id))
}

// TransitionStatus moves the booking from one status to another and
// reports false when the booking was no longer in from.
func (r *BookingRepo) TransitionStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`, to, time.Now().UTC(), id, from)
	if err != nil {
		return false, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkPaid sets is_paid without touching the status.
func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE bookings SET is_paid = TRUE, updated_at = ? WHERE id = ?`, time.Now().UTC(), id))
}

// Complete marks the booking COMPLETED and paid.
func (r *BookingRepo) Complete(ctx context.Context, id uint64) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, is_paid = TRUE, updated_at = ? WHERE id = ?`,
		model.BookingCompleted, time.Now().UTC(), id))
}

// SetNotes replaces the admin notes; nil clears them.
func (r *BookingRepo) SetNotes(ctx context.Context, id uint64, notes *string) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE bookings SET admin_notes = ?, updated_at = ? WHERE id = ?`, nullString(notes), time.Now().UTC(), id))
}

// HasCompleted reports whether the user has a COMPLETED booking for the journey.
func (r *BookingRepo) HasCompleted(ctx context.Context, userID, journeyID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE user_id = ? AND journey_id = ? AND status = ?)`,
		userID, journeyID, model.BookingCompleted).Scan(&exists)
	return exists, err
}
