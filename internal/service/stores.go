// Package service holds the booking lifecycle, payment reconciliation,
// review gate and back-office rules.  It depends on the store
// interfaces below, implemented by package repository over MySQL.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/queue"
	"github.com/iliyamo/desert-paths/internal/repository"
)

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetSummary(ctx context.Context, id uint64) (*model.BookingSummary, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.BookingSummary, error)
	List(ctx context.Context, f repository.BookingFilter) ([]model.BookingSummary, error)
	UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error
	TransitionStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error)
	MarkPaid(ctx context.Context, id uint64) error
	Complete(ctx context.Context, id uint64) error
	SetNotes(ctx context.Context, id uint64, notes *string) error
	HasCompleted(ctx context.Context, userID, journeyID uint64) (bool, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByTransactionRef(ctx context.Context, ref string) (*model.Payment, error)
	LatestForBooking(ctx context.Context, bookingID uint64) (*model.Payment, error)
	ListByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error)
	Settle(ctx context.Context, ref string, out repository.PaymentOutcome) (*repository.Settlement, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *model.Review) error
	Exists(ctx context.Context, userID, journeyID uint64) (bool, error)
	ReviewedJourneys(ctx context.Context, userID uint64) (map[uint64]bool, error)
	ListApproved(ctx context.Context, journeyID uint64) ([]model.ReviewSummary, error)
	ListAll(ctx context.Context) ([]model.ReviewSummary, error)
	Approve(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

type CatalogStore interface {
	ListLands(ctx context.Context, activeOnly bool) ([]model.Land, error)
	GetLand(ctx context.Context, id uint64) (*model.Land, error)
	GetLandBySlug(ctx context.Context, slug string) (*model.Land, error)
	CreateLand(ctx context.Context, l *model.Land) error
	UpdateLand(ctx context.Context, l *model.Land) error
	DeleteLand(ctx context.Context, id uint64) error

	ListJourneys(ctx context.Context, f repository.JourneyFilter) ([]model.Journey, error)
	GetJourney(ctx context.Context, id uint64) (*model.Journey, error)
	GetJourneyBySlug(ctx context.Context, slug string) (*model.Journey, error)
	CreateJourney(ctx context.Context, j *model.Journey) error
	UpdateJourney(ctx context.Context, j *model.Journey) error
	DeleteJourney(ctx context.Context, id uint64) error

	ListStyles(ctx context.Context, activeOnly bool) ([]model.Style, error)
	GetStyle(ctx context.Context, id uint64) (*model.Style, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	SetRole(ctx context.Context, id uint64, role string) error
	SetBlocked(ctx context.Context, id uint64, blocked bool) error
}

type StatsStore interface {
	Dashboard(ctx context.Context, recent int) (*model.DashboardCounts, error)
}

// EventPublisher sends booking events to the broker.  Failures are
// logged by the caller and never fail the request.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

func defaultClock() time.Time { return time.Now() }
