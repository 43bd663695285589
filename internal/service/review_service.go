package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/repository"
)

// ReviewService gates reviews on a completed booking and keeps them
// hidden until approved.
type ReviewService struct {
	reviews  ReviewStore
	bookings BookingStore
	catalog  CatalogStore
	log      *logger.Logger
	now      Clock
	validate *validator.Validate
}

func NewReviewService(reviews ReviewStore, bookings BookingStore, catalog CatalogStore, log *logger.Logger, clock Clock) *ReviewService {
	if log == nil {
		log = logger.Discard()
	}
	if clock == nil {
		clock = defaultClock
	}
	return &ReviewService{reviews: reviews, bookings: bookings, catalog: catalog, log: log, now: clock, validate: newValidator()}
}

// CanReview is true when the user completed the journey and has not
// reviewed it yet.
func (s *ReviewService) CanReview(ctx context.Context, userID, journeyID uint64) (bool, error) {
	err := s.eligible(ctx, userID, journeyID)
	var c *ConflictError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &c):
		return false, nil
	}
	return false, err
}

func (s *ReviewService) eligible(ctx context.Context, userID, journeyID uint64) error {
	done, err := s.bookings.HasCompleted(ctx, userID, journeyID)
	if err != nil {
		return err
	}
	if !done {
		return conflict(ReasonReviewNotAllowed)
	}
	exists, err := s.reviews.Exists(ctx, userID, journeyID)
	if err != nil {
		return err
	}
	if exists {
		return conflict(ReasonAlreadyReviewed)
	}
	return nil
}

// SubmitReviewInput is the review form.
type SubmitReviewInput struct {
	UserID    uint64  `json:"-"`
	JourneyID uint64  `json:"-"`
	Rating    int     `json:"rating" validate:"min=1,max=5"`
	Comment   *string `json:"comment" validate:"omitempty,max=1000"`
}

// SubmitReview re-checks eligibility at write time and stores an
// unapproved review.  A concurrent duplicate that slips past the check
// is rejected by the (journey_id, user_id) unique key.
func (s *ReviewService) SubmitReview(ctx context.Context, in SubmitReviewInput) (*model.Review, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetJourney(ctx, in.JourneyID); err != nil {
		return nil, err
	}
	if err := s.eligible(ctx, in.UserID, in.JourneyID); err != nil {
		return nil, err
	}
	r := &model.Review{
		JourneyID:  in.JourneyID,
		UserID:     in.UserID,
		Rating:     in.Rating,
		Comment:    trimmedOrNil(in.Comment),
		IsApproved: false,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict(ReasonAlreadyReviewed)
		}
		return nil, err
	}
	s.log.Info("review submitted", "review_id", r.ID, "journey_id", r.JourneyID, "user_id", r.UserID, "rating", r.Rating)
	return r, nil
}

// ListApproved returns the public reviews of a journey.
func (s *ReviewService) ListApproved(ctx context.Context, journeyID uint64) ([]model.ReviewSummary, error) {
	return s.reviews.ListApproved(ctx, journeyID)
}

// ListAll returns every review for moderation.
func (s *ReviewService) ListAll(ctx context.Context) ([]model.ReviewSummary, error) {
	return s.reviews.ListAll(ctx)
}

func (s *ReviewService) Approve(ctx context.Context, id uint64) error {
	if err := s.reviews.Approve(ctx, id); err != nil {
		return err
	}
	s.log.Info("review approved", "review_id", id)
	return nil
}

func (s *ReviewService) Delete(ctx context.Context, id uint64) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("review deleted", "review_id", id)
	return nil
}
