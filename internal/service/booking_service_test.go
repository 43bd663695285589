package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/queue"
)

func validInput() CreateBookingInput {
	return CreateBookingInput{
		UserID:        customerID,
		JourneyID:     journeyID,
		StyleID:       comfortID,
		TravelDate:    dayStr(MinDaysBeforeTravel),
		Guests:        2,
		PaymentMethod: "ONLINE",
		ContactPhone:  "0501234567",
		ContactEmail:  "Sara@Example.com",
	}
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestCreateBooking_PricesAndStoresPending(t *testing.T) {
	f := newFixture()
	b, err := f.bookings.CreateBooking(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, int64(750000), b.TotalCents) // 2500.00 x 1.50 x 2
	assert.Equal(t, model.BookingPending, b.Status)
	assert.False(t, b.IsPaid)
	assert.Equal(t, model.PaymentOnline, b.PaymentMethod)
	assert.Equal(t, "+966501234567", b.ContactPhone)
	assert.Equal(t, "sara@example.com", b.ContactEmail)
	assert.Regexp(t, regexp.MustCompile(`^DP-20260301-[A-Z0-9]{4}$`), b.Reference)
	assert.Equal(t, day(MinDaysBeforeTravel), b.TravelDate)

	stored := f.booking(b.ID)
	assert.Equal(t, b.Reference, stored.Reference)
}

func TestCreateBooking_TravelDateBoundary(t *testing.T) {
	f := newFixture()
	in := validInput()
	in.TravelDate = dayStr(MinDaysBeforeTravel - 1)
	_, err := f.bookings.CreateBooking(context.Background(), in)
	assert.Equal(t, []string{"travel_date"}, fieldNames(t, err))

	in.TravelDate = dayStr(MinDaysBeforeTravel)
	_, err = f.bookings.CreateBooking(context.Background(), in)
	assert.NoError(t, err)
}

func TestCreateBooking_GroupSize(t *testing.T) {
	f := newFixture()
	in := validInput()
	in.Guests = 8
	_, err := f.bookings.CreateBooking(context.Background(), in)
	require.NoError(t, err)

	in.Guests = 9
	_, err = f.bookings.CreateBooking(context.Background(), in)
	assert.Equal(t, []string{"guests"}, fieldNames(t, err))

	in.Guests = 0
	_, err = f.bookings.CreateBooking(context.Background(), in)
	assert.Equal(t, []string{"guests"}, fieldNames(t, err))

	in.Guests = MaxGuestsPerBooking + 1
	_, err = f.bookings.CreateBooking(context.Background(), in)
	assert.Equal(t, []string{"guests"}, fieldNames(t, err))
}

func TestCreateBooking_CollectsFieldErrors(t *testing.T) {
	f := newFixture()
	in := validInput()
	in.StyleID = retiredStyle
	in.PaymentMethod = "cheque"
	in.ContactPhone = "12"
	_, err := f.bookings.CreateBooking(context.Background(), in)
	assert.ElementsMatch(t, []string{"style_id", "payment_method", "contact_phone"}, fieldNames(t, err))
	assert.Empty(t, f.w.bookings)
}

func TestCreateBooking_StructTags(t *testing.T) {
	f := newFixture()
	_, err := f.bookings.CreateBooking(context.Background(), CreateBookingInput{UserID: customerID, Guests: 1, TravelDate: "01/03/2026"})
	assert.ElementsMatch(t,
		[]string{"journey_id", "style_id", "travel_date", "payment_method", "contact_phone", "contact_email"},
		fieldNames(t, err))
}

func TestCreateBooking_OnArrivalSpelling(t *testing.T) {
	f := newFixture()
	in := validInput()
	in.PaymentMethod = "OnArrival"
	b, err := f.bookings.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentOnArrival, b.PaymentMethod)
}

func TestCreateBooking_UnknownOrInactiveJourney(t *testing.T) {
	f := newFixture()
	in := validInput()
	in.JourneyID = 999
	_, err := f.bookings.CreateBooking(context.Background(), in)
	assert.ErrorIs(t, err, ErrNotFound)

	in.JourneyID = inactiveJID
	_, err = f.bookings.CreateBooking(context.Background(), in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBooking_BlockedUser(t *testing.T) {
	f := newFixture()
	f.w.users[customerID].IsBlocked = true
	_, err := f.bookings.CreateBooking(context.Background(), validInput())
	var c *ConflictError
	require.ErrorAs(t, err, &c)
	assert.Equal(t, ReasonAccountBlocked, c.Reason)
}

func TestCreateBooking_RetriesReferenceCollision(t *testing.T) {
	f := newFixture()
	taken := f.addBooking(otherID, model.BookingPending, day(30))
	f.w.bookings[taken.ID].Reference = "DP-20260301-AAAA"

	refs := []string{"DP-20260301-AAAA", "DP-20260301-AAAA", "DP-20260301-BBBB"}
	calls := 0
	f.bookings.newReference = func(time.Time) (string, error) {
		r := refs[calls]
		calls++
		return r, nil
	}
	b, err := f.bookings.CreateBooking(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "DP-20260301-BBBB", b.Reference)
	assert.Equal(t, 3, calls)
}

func TestCreateBooking_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture()
	taken := f.addBooking(otherID, model.BookingPending, day(30)).Reference
	calls := 0
	f.bookings.newReference = func(time.Time) (string, error) {
		calls++
		return taken, nil
	}
	_, err := f.bookings.CreateBooking(context.Background(), validInput())
	require.Error(t, err)
	assert.Equal(t, maxReferenceAttempts, calls)
}

func TestCancelBooking_DateBoundary(t *testing.T) {
	f := newFixture()
	late := f.addBooking(customerID, model.BookingPending, day(MinDaysBeforeCancel))
	_, err := f.bookings.CancelBooking(context.Background(), customerID, late.ID)
	var c *ConflictError
	require.ErrorAs(t, err, &c)
	assert.Equal(t, ReasonCancelTooLate, c.Reason)
	assert.Equal(t, model.BookingPending, f.booking(late.ID).Status)

	ok := f.addBooking(customerID, model.BookingPending, day(MinDaysBeforeCancel+1))
	got, err := f.bookings.CancelBooking(context.Background(), customerID, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, got.Status)
	assert.Equal(t, model.BookingCancelled, f.booking(ok.ID).Status)
	assert.Equal(t, []queue.EventType{queue.BookingCancelled}, f.events.types())
}

func TestCancelBooking_OnlyPendingAndOwned(t *testing.T) {
	f := newFixture()
	confirmed := f.addBooking(customerID, model.BookingConfirmed, day(60))
	_, err := f.bookings.CancelBooking(context.Background(), customerID, confirmed.ID)
	var c *ConflictError
	require.ErrorAs(t, err, &c)
	assert.Equal(t, ReasonOnlyPendingCancel, c.Reason)

	theirs := f.addBooking(otherID, model.BookingPending, day(60))
	_, err = f.bookings.CancelBooking(context.Background(), customerID, theirs.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.BookingPending, f.booking(theirs.ID).Status)
}

func TestGetBooking_HidesOtherUsers(t *testing.T) {
	f := newFixture()
	b := f.addBooking(customerID, model.BookingPending, day(30))
	d, err := f.bookings.GetBooking(context.Background(), customerID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hegra by Night", d.JourneyTitle)
	assert.Equal(t, "Sara Ali", d.CustomerName)

	_, err = f.bookings.GetBooking(context.Background(), otherID, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMyBookings_Flags(t *testing.T) {
	f := newFixture()
	pending := f.addBooking(customerID, model.BookingPending, day(30))
	completed := f.addBooking(customerID, model.BookingCompleted, day(-10))
	f.addBooking(otherID, model.BookingPending, day(30))

	rows, err := f.bookings.ListMyBookings(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byID := map[uint64]MyBooking{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	assert.True(t, byID[pending.ID].CanCancel)
	assert.True(t, byID[pending.ID].CanPay)
	assert.False(t, byID[pending.ID].CanReview)
	assert.False(t, byID[completed.ID].CanCancel)
	assert.True(t, byID[completed.ID].CanReview)

	_, err = f.reviews.SubmitReview(context.Background(), SubmitReviewInput{UserID: customerID, JourneyID: journeyID, Rating: 5})
	require.NoError(t, err)
	rows, err = f.bookings.ListMyBookings(context.Background(), customerID)
	require.NoError(t, err)
	for _, r := range rows {
		assert.False(t, r.CanReview)
		assert.True(t, r.HasReviewed)
	}
}

func TestAdminActions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.addBooking(customerID, model.BookingPending, day(30))
	f.w.bookings[b.ID].PaymentMethod = model.PaymentOnArrival

	got, err := f.bookings.AdminConfirm(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	assert.False(t, got.IsPaid)

	got, err = f.bookings.AdminMarkPaid(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	assert.True(t, f.booking(b.ID).IsPaid)

	got, err = f.bookings.AdminComplete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, f.booking(b.ID).Status)
	assert.True(t, got.IsPaid)

	assert.Equal(t,
		[]queue.EventType{queue.BookingConfirmed, queue.BookingPaid, queue.BookingCompleted},
		f.events.types())
	for _, ev := range f.events.events {
		assert.Equal(t, ActorAdmin, ev.Actor)
		assert.Equal(t, b.ID, ev.BookingID)
	}

	other := f.addBooking(customerID, model.BookingConfirmed, day(3))
	got, err = f.bookings.AdminCancel(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, got.Status)

	_, err = f.bookings.AdminConfirm(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminSetNotes(t *testing.T) {
	f := newFixture()
	b := f.addBooking(customerID, model.BookingPending, day(30))

	got, err := f.bookings.AdminSetNotes(context.Background(), b.ID, "  VIP guest ")
	require.NoError(t, err)
	require.NotNil(t, got.AdminNotes)
	assert.Equal(t, "VIP guest", *f.booking(b.ID).AdminNotes)

	_, err = f.bookings.AdminSetNotes(context.Background(), b.ID, "")
	require.NoError(t, err)
	assert.Nil(t, f.booking(b.ID).AdminNotes)

	_, err = f.bookings.AdminSetNotes(context.Background(), b.ID, strings.Repeat("x", maxNotesLength+1))
	assert.True(t, IsValidation(err))

	// The limit is in characters: 1000 two-byte letters fit.
	arabic := strings.Repeat("ص", maxNotesLength)
	_, err = f.bookings.AdminSetNotes(context.Background(), b.ID, arabic)
	require.NoError(t, err)
	assert.Equal(t, arabic, *f.booking(b.ID).AdminNotes)

	_, err = f.bookings.AdminSetNotes(context.Background(), b.ID, arabic+"ص")
	assert.True(t, IsValidation(err))
}

func TestAdminListBookings(t *testing.T) {
	f := newFixture()
	f.addBooking(customerID, model.BookingPending, day(30))
	f.addBooking(customerID, model.BookingConfirmed, day(30))

	all, err := f.bookings.AdminListBookings(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.bookings.AdminListBookings(context.Background(), "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.BookingPending, pending[0].Status)

	_, err = f.bookings.AdminListBookings(context.Background(), "ARCHIVED")
	assert.True(t, IsValidation(err))
}

func TestDashboard(t *testing.T) {
	f := newFixture()
	f.addBooking(customerID, model.BookingPending, day(30))
	d, err := f.bookings.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Lands)
	assert.Equal(t, 2, d.Journeys)
	assert.Equal(t, 1, d.PendingBookings)
	assert.Equal(t, 4, d.Users)
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("broker down")
	b := f.addBooking(customerID, model.BookingPending, day(30))
	got, err := f.bookings.CancelBooking(context.Background(), customerID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, got.Status)
}
