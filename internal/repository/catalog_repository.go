package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/desert-paths/internal/model"
)

// CatalogRepo persists lands, journeys and styles.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ---- lands ----

const landColumns = `id, name, slug, short_description, hero_image_url, display_order, is_active, created_at`

func scanLand(row rowScanner) (*model.Land, error) {
	var (
		l          model.Land
		desc, hero sql.NullString
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Slug, &desc, &hero, &l.DisplayOrder, &l.IsActive, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.ShortDescription = stringPtr(desc)
	l.HeroImageURL = stringPtr(hero)
	return &l, nil
}

// ListLands returns lands ordered by display order then name.
func (r *CatalogRepo) ListLands(ctx context.Context, activeOnly bool) ([]model.Land, error) {
	q := `SELECT ` + landColumns + ` FROM lands`
	if activeOnly {
		q += ` WHERE is_active = TRUE`
	}
	q += ` ORDER BY display_order, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Land{}
	for rows.Next() {
		l, err := scanLand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) GetLand(ctx context.Context, id uint64) (*model.Land, error) {
	l, err := scanLand(r.db.QueryRowContext(ctx, `SELECT `+landColumns+` FROM lands WHERE id = ?`, id))
	return l, mapErr(err)
}

func (r *CatalogRepo) GetLandBySlug(ctx context.Context, slug string) (*model.Land, error) {
	l, err := scanLand(r.db.QueryRowContext(ctx, `SELECT `+landColumns+` FROM lands WHERE slug = ?`, slug))
	return l, mapErr(err)
}

// CreateLand inserts l; a duplicate slug returns ErrDuplicate.
func (r *CatalogRepo) CreateLand(ctx context.Context, l *model.Land) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO lands (name, slug, short_description, hero_image_url, display_order, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.Slug, nullString(l.ShortDescription), nullString(l.HeroImageURL), l.DisplayOrder, l.IsActive, l.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) UpdateLand(ctx context.Context, l *model.Land) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE lands SET name = ?, slug = ?, short_description = ?, hero_image_url = ?, display_order = ?, is_active = ? WHERE id = ?`,
		l.Name, l.Slug, nullString(l.ShortDescription), nullString(l.HeroImageURL), l.DisplayOrder, l.IsActive, l.ID))
}

// DeleteLand returns ErrConflict while journeys still reference the land.
func (r *CatalogRepo) DeleteLand(ctx context.Context, id uint64) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM lands WHERE id = ?`, id))
}

// ---- journeys ----

const journeyColumns = `id, land_id, default_style_id, title, slug, short_description, duration_days, duration_nights,
	price_from_cents, max_group_size, difficulty, hero_image_url, is_featured, is_active, created_at`

func scanJourney(row rowScanner) (*model.Journey, error) {
	var (
		j          model.Journey
		desc, hero sql.NullString
	)
	err := row.Scan(&j.ID, &j.LandID, &j.DefaultStyleID, &j.Title, &j.Slug, &desc, &j.DurationDays, &j.DurationNights,
		&j.PriceFromCents, &j.MaxGroupSize, &j.Difficulty, &hero, &j.IsFeatured, &j.IsActive, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	j.ShortDescription = stringPtr(desc)
	j.HeroImageURL = stringPtr(hero)
	return &j, nil
}

// JourneyFilter narrows ListJourneys.  Zero values mean no restriction.
type JourneyFilter struct {
	LandID       uint64
	FeaturedOnly bool
	ActiveOnly   bool
}

// ListJourneys returns journeys, featured first then by title.
func (r *CatalogRepo) ListJourneys(ctx context.Context, f JourneyFilter) ([]model.Journey, error) {
	q := `SELECT ` + journeyColumns + ` FROM journeys WHERE 1 = 1`
	var args []any
	if f.LandID != 0 {
		q += ` AND land_id = ?`
		args = append(args, f.LandID)
	}
	if f.FeaturedOnly {
		q += ` AND is_featured = TRUE`
	}
	if f.ActiveOnly {
		q += ` AND is_active = TRUE`
	}
	q += ` ORDER BY is_featured DESC, title`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Journey{}
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) GetJourney(ctx context.Context, id uint64) (*model.Journey, error) {
	j, err := scanJourney(r.db.QueryRowContext(ctx, `SELECT `+journeyColumns+` FROM journeys WHERE id = ?`, id))
	return j, mapErr(err)
}

func (r *CatalogRepo) GetJourneyBySlug(ctx context.Context, slug string) (*model.Journey, error) {
	j, err := scanJourney(r.db.QueryRowContext(ctx, `SELECT `+journeyColumns+` FROM journeys WHERE slug = ?`, slug))
	return j, mapErr(err)
}

func (r *CatalogRepo) CreateJourney(ctx context.Context, j *model.Journey) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO journeys (land_id, default_style_id, title, slug, short_description, duration_days, duration_nights,
		 price_from_cents, max_group_size, difficulty, hero_image_url, is_featured, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.LandID, j.DefaultStyleID, j.Title, j.Slug, nullString(j.ShortDescription), j.DurationDays, j.DurationNights,
		j.PriceFromCents, j.MaxGroupSize, j.Difficulty, nullString(j.HeroImageURL), j.IsFeatured, j.IsActive, j.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	j.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) UpdateJourney(ctx context.Context, j *model.Journey) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE journeys SET land_id = ?, default_style_id = ?, title = ?, slug = ?, short_description = ?,
		 duration_days = ?, duration_nights = ?, price_from_cents = ?, max_group_size = ?, difficulty = ?,
		 hero_image_url = ?, is_featured = ?, is_active = ? WHERE id = ?`,
		j.LandID, j.DefaultStyleID, j.Title, j.Slug, nullString(j.ShortDescription),
		j.DurationDays, j.DurationNights, j.PriceFromCents, j.MaxGroupSize, j.Difficulty,
		nullString(j.HeroImageURL), j.IsFeatured, j.IsActive, j.ID))
}

// DeleteJourney removes a journey and, by cascade, its reviews.  It
// returns ErrConflict while bookings reference the journey.
func (r *CatalogRepo) DeleteJourney(ctx context.Context, id uint64) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM journeys WHERE id = ?`, id))
}

// ---- styles ----

const styleColumns = `id, name, description, multiplier, is_active, created_at`

func scanStyle(row rowScanner) (*model.Style, error) {
	var (
		s    model.Style
		desc sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Name, &desc, &s.Multiplier, &s.IsActive, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Description = stringPtr(desc)
	return &s, nil
}

// ListStyles returns styles ordered by multiplier.
func (r *CatalogRepo) ListStyles(ctx context.Context, activeOnly bool) ([]model.Style, error) {
	q := `SELECT ` + styleColumns + ` FROM styles`
	if activeOnly {
		q += ` WHERE is_active = TRUE`
	}
	q += ` ORDER BY multiplier, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Style{}
	for rows.Next() {
		s, err := scanStyle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) GetStyle(ctx context.Context, id uint64) (*model.Style, error) {
	s, err := scanStyle(r.db.QueryRowContext(ctx, `SELECT `+styleColumns+` FROM styles WHERE id = ?`, id))
	return s, mapErr(err)
}
