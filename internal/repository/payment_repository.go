package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/desert-paths/internal/model"
)

// PaymentRepo persists payment attempts.  Payments are never deleted
// directly; they go away only with their booking (ON DELETE CASCADE).
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, booking_id, transaction_ref, amount_cents, currency, status, provider,
	response_code, response_message, created_at, updated_at, paid_at`

func scanPayment(row rowScanner) (*model.Payment, error) {
	var (
		p             model.Payment
		code, message sql.NullString
		updated, paid sql.NullTime
	)
	err := row.Scan(&p.ID, &p.BookingID, &p.TransactionRef, &p.AmountCents, &p.Currency, &p.Status, &p.Provider,
		&code, &message, &p.CreatedAt, &updated, &paid)
	if err != nil {
		return nil, err
	}
	p.ResponseCode = stringPtr(code)
	p.ResponseMessage = stringPtr(message)
	p.UpdatedAt = timePtr(updated)
	p.PaidAt = timePtr(paid)
	return &p, nil
}

// Create inserts p and fills ID.  A clash on transaction_ref returns
// ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (booking_id, transaction_ref, amount_cents, currency, status, provider, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.TransactionRef, p.AmountCents, p.Currency, p.Status, p.Provider, p.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByTransactionRef returns ErrNotFound for unknown references.
func (r *PaymentRepo) GetByTransactionRef(ctx context.Context, ref string) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_ref = ?`, ref))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// LatestForBooking returns the most recent attempt or ErrNotFound.
func (r *PaymentRepo) LatestForBooking(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, bookingID))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// ListByBooking returns every attempt for a booking, oldest first.
func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? ORDER BY created_at, id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// PaymentOutcome is the provider verdict applied to a pending payment.
type PaymentOutcome struct {
	Success         bool
	ResponseCode    string
	ResponseMessage string
	At              time.Time
}

// Settlement reports what Settle changed.
type Settlement struct {
	Payment          model.Payment
	Applied          bool // false when the payment was already terminal
	BookingConfirmed bool // booking moved PENDING -> CONFIRMED
}

// Settle applies a provider outcome to the payment identified by ref in
// one transaction.  The payment row is locked so concurrent callback and
// return handling apply the outcome once.  On success the owning booking
// is marked paid and, if still PENDING, CONFIRMED.
func (r *PaymentRepo) Settle(ctx context.Context, ref string, out PaymentOutcome) (*Settlement, error) {
	if out.At.IsZero() {
		out.At = time.Now().UTC()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_ref = ? FOR UPDATE`, ref))
	if err != nil {
		return nil, mapErr(err)
	}
	if p.Status.Terminal() {
		return &Settlement{Payment: *p}, nil
	}

	status := model.PaymentFailed
	var paidAt sql.NullTime
	if out.Success {
		status = model.PaymentCompleted
		paidAt = sql.NullTime{Time: out.At, Valid: true}
	}
	code, message := out.ResponseCode, out.ResponseMessage
	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, response_code = ?, response_message = ?, updated_at = ?, paid_at = ? WHERE id = ?`,
		status, nullString(&code), nullString(&message), out.At, paidAt, p.ID); err != nil {
		return nil, err
	}
	p.Status = status
	p.ResponseCode, p.ResponseMessage = &code, &message
	p.UpdatedAt = &out.At
	p.PaidAt = timePtr(paidAt)

	s := &Settlement{Payment: *p, Applied: true}
	if out.Success {
		res, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, is_paid = TRUE, updated_at = ? WHERE id = ? AND status = ?`,
			model.BookingConfirmed, out.At, p.BookingID, model.BookingPending)
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, err
		} else if n == 1 {
			s.BookingConfirmed = true
		} else if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET is_paid = TRUE, updated_at = ? WHERE id = ?`, out.At, p.BookingID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return s, nil
}
