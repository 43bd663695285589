package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/queue"
	"github.com/iliyamo/desert-paths/internal/repository"
)

const (
	dashboardRecent = 5
	maxNotesLength  = 1000
)

// AdminListBookings returns bookings filtered by an optional status.
func (s *BookingService) AdminListBookings(ctx context.Context, status string) ([]model.BookingSummary, error) {
	f := repository.BookingFilter{}
	if strings.TrimSpace(status) != "" {
		st, ok := model.ParseBookingStatus(status)
		if !ok {
			return nil, invalid("status", "status must be one of: PENDING CONFIRMED COMPLETED CANCELLED")
		}
		f.Status = st
	}
	return s.bookings.List(ctx, f)
}

// AdminGetBooking returns any booking with its payments.
func (s *BookingService) AdminGetBooking(ctx context.Context, bookingID uint64) (*BookingDetail, error) {
	return s.detail(ctx, bookingID)
}

// AdminConfirm moves a booking to CONFIRMED regardless of payment state.
// It is how ON_ARRIVAL bookings are accepted.
func (s *BookingService) AdminConfirm(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.adminUpdate(ctx, bookingID, queue.BookingConfirmed, func(b *model.Booking) error {
		b.Status = model.BookingConfirmed
		return s.bookings.UpdateStatus(ctx, b.ID, model.BookingConfirmed)
	})
}

// AdminCancel cancels a booking without the customer date restriction.
func (s *BookingService) AdminCancel(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.adminUpdate(ctx, bookingID, queue.BookingCancelled, func(b *model.Booking) error {
		b.Status = model.BookingCancelled
		return s.bookings.UpdateStatus(ctx, b.ID, model.BookingCancelled)
	})
}

// AdminMarkPaid records settlement outside the gateway, e.g. cash on
// arrival.  The status is unchanged.
func (s *BookingService) AdminMarkPaid(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.adminUpdate(ctx, bookingID, queue.BookingPaid, func(b *model.Booking) error {
		b.IsPaid = true
		return s.bookings.MarkPaid(ctx, b.ID)
	})
}

// AdminComplete marks the journey as done.  Completion implies payment.
func (s *BookingService) AdminComplete(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.adminUpdate(ctx, bookingID, queue.BookingCompleted, func(b *model.Booking) error {
		b.Status = model.BookingCompleted
		b.IsPaid = true
		return s.bookings.Complete(ctx, b.ID)
	})
}

// AdminSetNotes replaces the internal notes; blank clears them.
func (s *BookingService) AdminSetNotes(ctx context.Context, bookingID uint64, notes string) (*model.Booking, error) {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return nil, invalid("admin_notes", "admin_notes must be at most 1000 characters")
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	b.AdminNotes = trimmedOrNil(&notes)
	if err := s.bookings.SetNotes(ctx, b.ID, b.AdminNotes); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookingService) adminUpdate(ctx context.Context, bookingID uint64, ev queue.EventType, apply func(*model.Booking) error) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := apply(b); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, b, ev, ActorAdmin)
	return b, nil
}

// Dashboard returns the back-office counters and the latest bookings.
func (s *BookingService) Dashboard(ctx context.Context) (*model.DashboardCounts, error) {
	return s.stats.Dashboard(ctx, dashboardRecent)
}
