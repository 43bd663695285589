package model

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.  The string value
// is the canonical form stored in bookings.status and sent over JSON
// and the message broker.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is one of the known booking states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Terminal reports whether no customer-driven transition leaves s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// ParseBookingStatus accepts any letter case and returns false for
// unknown values.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	s := BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// PaymentMethod selects how the customer settles a booking.
type PaymentMethod string

const (
	PaymentOnline    PaymentMethod = "ONLINE"
	PaymentOnArrival PaymentMethod = "ON_ARRIVAL"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentOnArrival
}

// ParsePaymentMethod accepts "online", "on_arrival", "OnArrival" and
// similar spellings.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if s == "ONARRIVAL" {
		s = string(PaymentOnArrival)
	}
	m := PaymentMethod(s)
	return m, m.Valid()
}

// Booking is a customer's reservation of a journey for a travel date
// and a number of guests.  Bookings are never deleted; cancellation
// is a status change.
//
// Fields:
//
//	ID              – primary key identifier.
//	Reference       – public reference, DP-YYYYMMDD-XXXX, unique.
//	JourneyID       – booked journey.
//	UserID          – customer who owns the booking.
//	StyleID         – travel style whose multiplier priced the booking.
//	TravelDate      – departure date (UTC midnight).
//	Guests          – number of travellers.
//	TotalCents      – price fixed at creation, never recomputed.
//	Status          – lifecycle state.
//	PaymentMethod   – ONLINE or ON_ARRIVAL.
//	IsPaid          – settled through a completed payment or by an admin.
//	ContactPhone    – E.164 phone for this booking.
//	ContactEmail    – email for this booking.
//	SpecialRequests – free text from the customer.
//	AdminNotes      – internal notes.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp (nil until first update).
type Booking struct {
	ID              uint64        `json:"id"`               // bookings.id
	Reference       string        `json:"reference"`        // bookings.reference
	JourneyID       uint64        `json:"journey_id"`       // bookings.journey_id
	UserID          uint64        `json:"user_id"`          // bookings.user_id
	StyleID         uint64        `json:"style_id"`         // bookings.style_id
	TravelDate      time.Time     `json:"travel_date"`      // bookings.travel_date
	Guests          int           `json:"guests"`           // bookings.guests
	TotalCents      int64         `json:"total_cents"`      // bookings.total_cents
	Status          BookingStatus `json:"status"`           // bookings.status
	PaymentMethod   PaymentMethod `json:"payment_method"`   // bookings.payment_method
	IsPaid          bool          `json:"is_paid"`          // bookings.is_paid
	ContactPhone    string        `json:"contact_phone"`    // bookings.contact_phone
	ContactEmail    string        `json:"contact_email"`    // bookings.contact_email
	SpecialRequests *string       `json:"special_requests"` // bookings.special_requests (nullable)
	AdminNotes      *string       `json:"admin_notes"`      // bookings.admin_notes (nullable)
	CreatedAt       time.Time     `json:"created_at"`       // bookings.created_at
	UpdatedAt       *time.Time    `json:"updated_at"`       // bookings.updated_at (nullable)
}
