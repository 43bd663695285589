package model

import "time"

// Land is a destination grouping journeys, e.g. a desert region.
type Land struct {
	ID               uint64    `json:"id"`                // lands.id
	Name             string    `json:"name"`              // lands.name
	Slug             string    `json:"slug"`              // lands.slug
	ShortDescription *string   `json:"short_description"` // lands.short_description (nullable)
	HeroImageURL     *string   `json:"hero_image_url"`    // lands.hero_image_url (nullable)
	DisplayOrder     int       `json:"display_order"`     // lands.display_order
	IsActive         bool      `json:"is_active"`         // lands.is_active
	CreatedAt        time.Time `json:"created_at"`        // lands.created_at
}

// Journey is a bookable tour product.  PriceFromCents is the base
// price per guest before the style multiplier is applied.
type Journey struct {
	ID               uint64    `json:"id"`                // journeys.id
	LandID           uint64    `json:"land_id"`           // journeys.land_id
	DefaultStyleID   uint64    `json:"default_style_id"`  // journeys.default_style_id
	Title            string    `json:"title"`             // journeys.title
	Slug             string    `json:"slug"`              // journeys.slug
	ShortDescription *string   `json:"short_description"` // journeys.short_description (nullable)
	DurationDays     int       `json:"duration_days"`     // journeys.duration_days
	DurationNights   int       `json:"duration_nights"`   // journeys.duration_nights
	PriceFromCents   int64     `json:"price_from_cents"`  // journeys.price_from_cents
	MaxGroupSize     int       `json:"max_group_size"`    // journeys.max_group_size
	Difficulty       string    `json:"difficulty"`        // journeys.difficulty
	HeroImageURL     *string   `json:"hero_image_url"`    // journeys.hero_image_url (nullable)
	IsFeatured       bool      `json:"is_featured"`       // journeys.is_featured
	IsActive         bool      `json:"is_active"`         // journeys.is_active
	CreatedAt        time.Time `json:"created_at"`        // journeys.created_at
}

// Style is a comfort tier.  Multiplier is stored in hundredths, so 150
// means the base price is multiplied by 1.50.
type Style struct {
	ID          uint64    `json:"id"`          // styles.id
	Name        string    `json:"name"`        // styles.name
	Description *string   `json:"description"` // styles.description (nullable)
	Multiplier  int64     `json:"multiplier"`  // styles.multiplier (hundredths)
	IsActive    bool      `json:"is_active"`   // styles.is_active
	CreatedAt   time.Time `json:"created_at"`  // styles.created_at
}
