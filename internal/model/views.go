package model

// BookingSummary is a booking joined with the names shown in lists.
type BookingSummary struct {
	Booking
	JourneyTitle string `json:"journey_title"` // journeys.title
	JourneySlug  string `json:"journey_slug"`  // journeys.slug
	StyleName    string `json:"style_name"`    // styles.name
	CustomerName string `json:"customer_name"` // users.first_name + last_name
}

// ReviewSummary is a review with its journey title and author name.
type ReviewSummary struct {
	Review
	JourneyTitle string `json:"journey_title"`
	AuthorName   string `json:"author_name"`
}

// StylePrice is a style with the per-guest price it yields for one
// journey.
type StylePrice struct {
	Style
	PricePerGuestCents int64 `json:"price_per_guest_cents"`
}

// DashboardCounts backs the back-office landing page.
type DashboardCounts struct {
	Lands           int              `json:"lands"`
	Journeys        int              `json:"journeys"`
	Bookings        int              `json:"bookings"`
	Users           int              `json:"users"`
	PendingBookings int              `json:"pending_bookings"`
	PendingReviews  int              `json:"pending_reviews"`
	RecentBookings  []BookingSummary `json:"recent_bookings"`
}
