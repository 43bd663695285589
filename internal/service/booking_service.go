package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/metrics"
	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/payment"
	"github.com/iliyamo/desert-paths/internal/queue"
	"github.com/iliyamo/desert-paths/internal/repository"
	"github.com/iliyamo/desert-paths/internal/utils"
)

// Booking rules.  Day counts are whole calendar days in UTC.
const (
	MinDaysBeforeTravel = 7
	MinDaysBeforeCancel = 14
	MaxGuestsPerBooking = 20

	maxReferenceAttempts = 5
	publishTimeout       = 5 * time.Second
)

// Actors recorded on booking events and transition metrics.
const (
	ActorCustomer = "customer"
	ActorAdmin    = "admin"
	ActorGateway  = "gateway"
)

// BookingDeps wires a BookingService.  Events and Clock are optional.
type BookingDeps struct {
	Bookings BookingStore
	Payments PaymentStore
	Reviews  ReviewStore
	Catalog  CatalogStore
	Users    UserStore
	Stats    StatsStore
	Gateway  payment.Gateway
	Events   EventPublisher
	Log      *logger.Logger
	Clock    Clock
	Currency string
}

// BookingService owns the booking and payment lifecycle:
//
//	PENDING -> CONFIRMED -> COMPLETED
//	PENDING -> CANCELLED
//
// Failed payment attempts are extra Payment rows, not a booking state.
type BookingService struct {
	bookings BookingStore
	payments PaymentStore
	reviews  ReviewStore
	catalog  CatalogStore
	users    UserStore
	stats    StatsStore
	gateway  payment.Gateway
	events   EventPublisher
	log      *logger.Logger
	now      Clock
	currency string
	validate *validator.Validate

	newReference func(time.Time) (string, error)
}

func NewBookingService(d BookingDeps) *BookingService {
	s := &BookingService{
		bookings:     d.Bookings,
		payments:     d.Payments,
		reviews:      d.Reviews,
		catalog:      d.Catalog,
		users:        d.Users,
		stats:        d.Stats,
		gateway:      d.Gateway,
		events:       d.Events,
		log:          d.Log,
		now:          d.Clock,
		currency:     d.Currency,
		validate:     newValidator(),
		newReference: utils.GenerateBookingReference,
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.currency == "" {
		s.currency = "SAR"
	}
	return s
}

// Gateway returns the configured payment gateway.
func (s *BookingService) Gateway() payment.Gateway { return s.gateway }

// today is the current UTC date at midnight.
func (s *BookingService) today() time.Time {
	return dateOf(s.now())
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateBookingInput is the customer's booking form.
type CreateBookingInput struct {
	UserID          uint64  `json:"-"`
	JourneyID       uint64  `json:"journey_id" validate:"required"`
	StyleID         uint64  `json:"style_id" validate:"required"`
	TravelDate      string  `json:"travel_date" validate:"required,datetime=2006-01-02"`
	Guests          int     `json:"guests" validate:"min=1,max=20"`
	PaymentMethod   string  `json:"payment_method" validate:"required"`
	ContactPhone    string  `json:"contact_phone" validate:"required,max=32"`
	ContactEmail    string  `json:"contact_email" validate:"required,email,max=256"`
	SpecialRequests *string `json:"special_requests" validate:"omitempty,max=1000"`
}

// CreateBooking validates the form, prices the booking and stores it as
// PENDING and unpaid.  For ONLINE bookings the caller continues with
// InitiatePayment; ON_ARRIVAL bookings wait for an admin.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, conflict(ReasonAccountBlocked)
	}

	journey, err := s.catalog.GetJourney(ctx, in.JourneyID)
	if err != nil {
		return nil, err
	}
	if !journey.IsActive {
		return nil, ErrNotFound
	}

	verr := &ValidationError{}
	method, ok := model.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		verr.add("payment_method", "payment_method must be one of: ONLINE ON_ARRIVAL")
	}
	travel, _ := time.Parse("2006-01-02", in.TravelDate)
	if earliest := s.today().AddDate(0, 0, MinDaysBeforeTravel); travel.Before(earliest) {
		verr.add("travel_date", fmt.Sprintf("Travel date must be at least %d days from today.", MinDaysBeforeTravel))
	}
	if in.Guests > journey.MaxGroupSize {
		verr.add("guests", fmt.Sprintf("Maximum group size for this journey is %d.", journey.MaxGroupSize))
	}
	style, err := s.catalog.GetStyle(ctx, in.StyleID)
	switch {
	case errors.Is(err, ErrNotFound):
		verr.add("style_id", "Selected travel style is not available.")
	case err != nil:
		return nil, err
	case !style.IsActive:
		verr.add("style_id", "Selected travel style is not available.")
	}
	phone, ok := NormalizePhone(in.ContactPhone)
	if !ok {
		verr.add("contact_phone", "contact_phone must be a valid phone number")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	total, err := utils.CalculateTotalPrice(journey.PriceFromCents, style.Multiplier, in.Guests)
	if err != nil {
		return nil, fmt.Errorf("price journey %d style %d: %w", journey.ID, style.ID, err)
	}

	b := &model.Booking{
		JourneyID:       journey.ID,
		UserID:          user.ID,
		StyleID:         style.ID,
		TravelDate:      travel,
		Guests:          in.Guests,
		TotalCents:      total,
		Status:          model.BookingPending,
		PaymentMethod:   method,
		ContactPhone:    phone,
		ContactEmail:    strings.ToLower(strings.TrimSpace(in.ContactEmail)),
		SpecialRequests: trimmedOrNil(in.SpecialRequests),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.insertWithReference(ctx, b); err != nil {
		return nil, err
	}
	metrics.BookingTransitions.WithLabelValues(string(model.BookingPending), ActorCustomer).Inc()
	s.log.Info("booking created",
		"booking_id", b.ID, "reference", b.Reference, "user_id", b.UserID,
		"journey_id", b.JourneyID, "total_cents", b.TotalCents, "payment_method", b.PaymentMethod)
	return b, nil
}

// insertWithReference stores b under a fresh reference, regenerating it
// when the unique key rejects a collision.
func (s *BookingService) insertWithReference(ctx context.Context, b *model.Booking) error {
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		ref, err := s.newReference(s.now())
		if err != nil {
			return err
		}
		b.Reference = ref
		err = s.bookings.Create(ctx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		s.log.Warn("booking reference collision", "reference", ref, "attempt", attempt)
	}
	return fmt.Errorf("no unique booking reference after %d attempts", maxReferenceAttempts)
}

// ownedBooking loads a booking and hides bookings of other users.
func (s *BookingService) ownedBooking(ctx context.Context, userID, bookingID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrNotFound
	}
	return b, nil
}

// BookingDetail is a booking with its payment attempts.
type BookingDetail struct {
	model.BookingSummary
	Payments []model.Payment `json:"payments"`
}

// GetBooking returns one of the user's bookings.
func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID uint64) (*BookingDetail, error) {
	if _, err := s.ownedBooking(ctx, userID, bookingID); err != nil {
		return nil, err
	}
	return s.detail(ctx, bookingID)
}

func (s *BookingService) detail(ctx context.Context, bookingID uint64) (*BookingDetail, error) {
	sum, err := s.bookings.GetSummary(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &BookingDetail{BookingSummary: *sum, Payments: payments}, nil
}

// MyBooking is a row of the customer's booking list with the actions
// currently open to them.
type MyBooking struct {
	model.BookingSummary
	CanCancel   bool `json:"can_cancel"`
	CanPay      bool `json:"can_pay"`
	CanReview   bool `json:"can_review"`
	HasReviewed bool `json:"has_reviewed"`
}

// ListMyBookings returns the user's bookings, newest first.
func (s *BookingService) ListMyBookings(ctx context.Context, userID uint64) ([]MyBooking, error) {
	rows, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.reviews.ReviewedJourneys(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]MyBooking, 0, len(rows))
	for _, r := range rows {
		b := r.Booking
		out = append(out, MyBooking{
			BookingSummary: r,
			CanCancel:      s.cancellable(&b) == nil,
			CanPay:         b.Status == model.BookingPending && b.PaymentMethod == model.PaymentOnline && !b.IsPaid,
			CanReview:      b.Status == model.BookingCompleted && !reviewed[b.JourneyID],
			HasReviewed:    reviewed[b.JourneyID],
		})
	}
	return out, nil
}

// cancellable applies the customer cancellation rules.
func (s *BookingService) cancellable(b *model.Booking) error {
	if b.Status != model.BookingPending {
		return conflict(ReasonOnlyPendingCancel)
	}
	if !dateOf(b.TravelDate).After(s.today().AddDate(0, 0, MinDaysBeforeCancel)) {
		return conflict(ReasonCancelTooLate)
	}
	return nil
}

// CancelBooking lets the owner cancel a PENDING booking more than 14
// days before travel.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uint64) (*model.Booking, error) {
	b, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.cancellable(b); err != nil {
		return nil, err
	}
	ok, err := s.bookings.TransitionStatus(ctx, b.ID, model.BookingPending, model.BookingCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflict(ReasonOnlyPendingCancel)
	}
	b.Status = model.BookingCancelled
	s.recordTransition(ctx, b, queue.BookingCancelled, ActorCustomer)
	return b, nil
}

// recordTransition counts, logs and publishes a booking state change.
func (s *BookingService) recordTransition(ctx context.Context, b *model.Booking, ev queue.EventType, actor string) {
	metrics.BookingTransitions.WithLabelValues(string(b.Status), actor).Inc()
	s.log.Info("booking transition", "booking_id", b.ID, "reference", b.Reference, "status", b.Status, "is_paid", b.IsPaid, "actor", actor)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	event := queue.BookingEvent{
		Type:       ev,
		BookingID:  b.ID,
		Reference:  b.Reference,
		UserID:     b.UserID,
		JourneyID:  b.JourneyID,
		Status:     string(b.Status),
		IsPaid:     b.IsPaid,
		TotalCents: b.TotalCents,
		TravelDate: b.TravelDate.Format("2006-01-02"),
		Actor:      actor,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(pubCtx, event); err != nil {
		metrics.EventsPublished.WithLabelValues(string(ev), "error").Inc()
		s.log.Warn("publish booking event failed", "type", ev, "booking_id", b.ID, "err", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev), "ok").Inc()
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
