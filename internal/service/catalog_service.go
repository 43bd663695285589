package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/repository"
	"github.com/iliyamo/desert-paths/internal/utils"
)

// CatalogService serves lands, journeys and styles to the public site
// and the back office.  OnChange runs after every successful write; the
// server uses it to purge cached catalog responses.
type CatalogService struct {
	catalog  CatalogStore
	reviews  ReviewStore
	log      *logger.Logger
	validate *validator.Validate
	OnChange func(ctx context.Context)
}

func NewCatalogService(catalog CatalogStore, reviews ReviewStore, log *logger.Logger) *CatalogService {
	if log == nil {
		log = logger.Discard()
	}
	return &CatalogService{catalog: catalog, reviews: reviews, log: log, validate: newValidator()}
}

func (s *CatalogService) changed(ctx context.Context) {
	if s.OnChange != nil {
		s.OnChange(ctx)
	}
}

// ---- public ----

func (s *CatalogService) ListLands(ctx context.Context) ([]model.Land, error) {
	return s.catalog.ListLands(ctx, true)
}

// LandDetail is a land with its active journeys.
type LandDetail struct {
	model.Land
	Journeys []model.Journey `json:"journeys"`
}

func (s *CatalogService) GetLand(ctx context.Context, slug string) (*LandDetail, error) {
	l, err := s.catalog.GetLandBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !l.IsActive {
		return nil, ErrNotFound
	}
	js, err := s.catalog.ListJourneys(ctx, repository.JourneyFilter{LandID: l.ID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return &LandDetail{Land: *l, Journeys: js}, nil
}

// ListJourneys returns active journeys, optionally of one land or only
// featured ones.
func (s *CatalogService) ListJourneys(ctx context.Context, landID uint64, featuredOnly bool) ([]model.Journey, error) {
	return s.catalog.ListJourneys(ctx, repository.JourneyFilter{LandID: landID, FeaturedOnly: featuredOnly, ActiveOnly: true})
}

// JourneyDetail is a journey with the per-guest price in every active
// style and its approved reviews.
type JourneyDetail struct {
	model.Journey
	Land    *model.Land           `json:"land"`
	Styles  []model.StylePrice    `json:"styles"`
	Reviews []model.ReviewSummary `json:"reviews"`
}

func (s *CatalogService) GetJourney(ctx context.Context, slug string) (*JourneyDetail, error) {
	j, err := s.catalog.GetJourneyBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !j.IsActive {
		return nil, ErrNotFound
	}
	land, err := s.catalog.GetLand(ctx, j.LandID)
	if err != nil {
		return nil, err
	}
	styles, err := s.StylePrices(ctx, j)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListApproved(ctx, j.ID)
	if err != nil {
		return nil, err
	}
	return &JourneyDetail{Journey: *j, Land: land, Styles: styles, Reviews: reviews}, nil
}

// StylePrices prices one guest of j in every active style.
func (s *CatalogService) StylePrices(ctx context.Context, j *model.Journey) ([]model.StylePrice, error) {
	styles, err := s.catalog.ListStyles(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]model.StylePrice, 0, len(styles))
	for _, st := range styles {
		price, err := utils.CalculateTotalPrice(j.PriceFromCents, st.Multiplier, 1)
		if err != nil {
			continue
		}
		out = append(out, model.StylePrice{Style: st, PricePerGuestCents: price})
	}
	return out, nil
}

func (s *CatalogService) ListStyles(ctx context.Context) ([]model.Style, error) {
	return s.catalog.ListStyles(ctx, true)
}

// ---- back office ----

// LandInput is the land create/update form.  An empty slug is derived
// from the name.
type LandInput struct {
	Name             string  `json:"name" validate:"required,max=100"`
	Slug             string  `json:"slug" validate:"omitempty,max=120"`
	ShortDescription *string `json:"short_description" validate:"omitempty,max=500"`
	HeroImageURL     *string `json:"hero_image_url" validate:"omitempty,url,max=500"`
	DisplayOrder     int     `json:"display_order" validate:"min=0"`
	IsActive         *bool   `json:"is_active"`
}

func (in LandInput) apply(l *model.Land) {
	l.Name = strings.TrimSpace(in.Name)
	l.Slug = slugOr(in.Slug, in.Name)
	l.ShortDescription = trimmedOrNil(in.ShortDescription)
	l.HeroImageURL = trimmedOrNil(in.HeroImageURL)
	l.DisplayOrder = in.DisplayOrder
	l.IsActive = in.IsActive == nil || *in.IsActive
}

func (s *CatalogService) AdminListLands(ctx context.Context) ([]model.Land, error) {
	return s.catalog.ListLands(ctx, false)
}

func (s *CatalogService) CreateLand(ctx context.Context, in LandInput) (*model.Land, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	l := &model.Land{}
	in.apply(l)
	if err := s.catalog.CreateLand(ctx, l); err != nil {
		return nil, slugConflict(err)
	}
	s.log.Info("land created", "land_id", l.ID, "slug", l.Slug)
	s.changed(ctx)
	return l, nil
}

func (s *CatalogService) UpdateLand(ctx context.Context, id uint64, in LandInput) (*model.Land, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	l, err := s.catalog.GetLand(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(l)
	if err := s.catalog.UpdateLand(ctx, l); err != nil {
		return nil, slugConflict(err)
	}
	s.changed(ctx)
	return l, nil
}

// DeleteLand removes a land that no journey references.
func (s *CatalogService) DeleteLand(ctx context.Context, id uint64) error {
	if err := s.catalog.DeleteLand(ctx, id); err != nil {
		return inUse(err)
	}
	s.log.Info("land deleted", "land_id", id)
	s.changed(ctx)
	return nil
}

// JourneyInput is the journey create/update form.
type JourneyInput struct {
	LandID           uint64  `json:"land_id" validate:"required"`
	DefaultStyleID   uint64  `json:"default_style_id" validate:"required"`
	Title            string  `json:"title" validate:"required,max=200"`
	Slug             string  `json:"slug" validate:"omitempty,max=200"`
	ShortDescription *string `json:"short_description" validate:"omitempty,max=500"`
	DurationDays     int     `json:"duration_days" validate:"min=1,max=60"`
	DurationNights   int     `json:"duration_nights" validate:"min=0,max=60"`
	PriceFromCents   int64   `json:"price_from_cents" validate:"min=1"`
	MaxGroupSize     int     `json:"max_group_size" validate:"min=1,max=20"`
	Difficulty       string  `json:"difficulty" validate:"omitempty,oneof=Easy Moderate Challenging Extreme"`
	HeroImageURL     *string `json:"hero_image_url" validate:"omitempty,url,max=500"`
	IsFeatured       bool    `json:"is_featured"`
	IsActive         *bool   `json:"is_active"`
}

func (in JourneyInput) apply(j *model.Journey) {
	j.LandID = in.LandID
	j.DefaultStyleID = in.DefaultStyleID
	j.Title = strings.TrimSpace(in.Title)
	j.Slug = slugOr(in.Slug, in.Title)
	j.ShortDescription = trimmedOrNil(in.ShortDescription)
	j.DurationDays = in.DurationDays
	j.DurationNights = in.DurationNights
	j.PriceFromCents = in.PriceFromCents
	j.MaxGroupSize = in.MaxGroupSize
	j.Difficulty = in.Difficulty
	if j.Difficulty == "" {
		j.Difficulty = "Moderate"
	}
	j.HeroImageURL = trimmedOrNil(in.HeroImageURL)
	j.IsFeatured = in.IsFeatured
	j.IsActive = in.IsActive == nil || *in.IsActive
}

// checkRefs verifies the land and default style a journey points at.
func (s *CatalogService) checkRefs(ctx context.Context, in JourneyInput) error {
	verr := &ValidationError{}
	if _, err := s.catalog.GetLand(ctx, in.LandID); errors.Is(err, ErrNotFound) {
		verr.add("land_id", "land does not exist")
	} else if err != nil {
		return err
	}
	if _, err := s.catalog.GetStyle(ctx, in.DefaultStyleID); errors.Is(err, ErrNotFound) {
		verr.add("default_style_id", "style does not exist")
	} else if err != nil {
		return err
	}
	return verr.orNil()
}

func (s *CatalogService) AdminListJourneys(ctx context.Context, landID uint64) ([]model.Journey, error) {
	return s.catalog.ListJourneys(ctx, repository.JourneyFilter{LandID: landID})
}

func (s *CatalogService) CreateJourney(ctx context.Context, in JourneyInput) (*model.Journey, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in); err != nil {
		return nil, err
	}
	j := &model.Journey{}
	in.apply(j)
	if err := s.catalog.CreateJourney(ctx, j); err != nil {
		return nil, slugConflict(err)
	}
	s.log.Info("journey created", "journey_id", j.ID, "slug", j.Slug)
	s.changed(ctx)
	return j, nil
}

func (s *CatalogService) UpdateJourney(ctx context.Context, id uint64, in JourneyInput) (*model.Journey, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	j, err := s.catalog.GetJourney(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in); err != nil {
		return nil, err
	}
	in.apply(j)
	if err := s.catalog.UpdateJourney(ctx, j); err != nil {
		return nil, slugConflict(err)
	}
	s.changed(ctx)
	return j, nil
}

// DeleteJourney removes a journey and its reviews.  Journeys with
// bookings cannot be deleted.
func (s *CatalogService) DeleteJourney(ctx context.Context, id uint64) error {
	if err := s.catalog.DeleteJourney(ctx, id); err != nil {
		return inUse(err)
	}
	s.log.Info("journey deleted", "journey_id", id)
	s.changed(ctx)
	return nil
}

func slugOr(slug, name string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return utils.Slugify(s)
	}
	return utils.Slugify(name)
}

func slugConflict(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return invalid("slug", "slug is already in use")
	}
	return err
}

func inUse(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return conflict(ReasonInUse)
	}
	return err
}
