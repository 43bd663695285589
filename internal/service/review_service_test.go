package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/desert-paths/internal/model"
)

func TestReview_RequiresCompletedBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addBooking(customerID, model.BookingConfirmed, day(-3))

	ok, err := f.reviews.CanReview(ctx, customerID, journeyID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.reviews.SubmitReview(ctx, SubmitReviewInput{UserID: customerID, JourneyID: journeyID, Rating: 4})
	var c *ConflictError
	require.ErrorAs(t, err, &c)
	assert.Equal(t, ReasonReviewNotAllowed, c.Reason)
}

func TestReview_SubmitOnceAndHiddenUntilApproved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addBooking(customerID, model.BookingCompleted, day(-3))

	ok, err := f.reviews.CanReview(ctx, customerID, journeyID)
	require.NoError(t, err)
	assert.True(t, ok)

	comment := "  Stars like nowhere else. "
	r, err := f.reviews.SubmitReview(ctx, SubmitReviewInput{UserID: customerID, JourneyID: journeyID, Rating: 5, Comment: &comment})
	require.NoError(t, err)
	assert.False(t, r.IsApproved)
	assert.Equal(t, "Stars like nowhere else.", *r.Comment)

	public, err := f.reviews.ListApproved(ctx, journeyID)
	require.NoError(t, err)
	assert.Empty(t, public)

	_, err = f.reviews.SubmitReview(ctx, SubmitReviewInput{UserID: customerID, JourneyID: journeyID, Rating: 3})
	var c *ConflictError
	require.ErrorAs(t, err, &c)
	assert.Equal(t, ReasonAlreadyReviewed, c.Reason)

	require.NoError(t, f.reviews.Approve(ctx, r.ID))
	public, err = f.reviews.ListApproved(ctx, journeyID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, 5, public[0].Rating)

	require.NoError(t, f.reviews.Delete(ctx, r.ID))
	all, err := f.reviews.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.ErrorIs(t, f.reviews.Approve(ctx, r.ID), ErrNotFound)
}

func TestReview_RatingBounds(t *testing.T) {
	f := newFixture()
	f.addBooking(customerID, model.BookingCompleted, day(-3))
	for _, rating := range []int{0, 6} {
		_, err := f.reviews.SubmitReview(context.Background(), SubmitReviewInput{UserID: customerID, JourneyID: journeyID, Rating: rating})
		assert.Equal(t, []string{"rating"}, fieldNames(t, err), "rating %d", rating)
	}
}

func TestReview_UnknownJourney(t *testing.T) {
	f := newFixture()
	_, err := f.reviews.SubmitReview(context.Background(), SubmitReviewInput{UserID: customerID, JourneyID: 999, Rating: 4})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReview_ConcurrentSubmissionsStoreOne(t *testing.T) {
	f := newFixture()
	f.addBooking(customerID, model.BookingCompleted, day(-3))

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.reviews.SubmitReview(context.Background(), SubmitReviewInput{UserID: customerID, JourneyID: journeyID, Rating: 4})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var c *ConflictError
		require.ErrorAs(t, err, &c)
		assert.Equal(t, ReasonAlreadyReviewed, c.Reason)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.w.reviews, 1)
}
