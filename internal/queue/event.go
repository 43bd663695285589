// Package queue carries booking domain events over RabbitMQ: a
// publisher used by the booking service and a consumer that appends
// each event to the booking log.
package queue

import "time"

// EventType names a booking transition.
type EventType string

const (
	BookingConfirmed EventType = "booking.confirmed"
	BookingCancelled EventType = "booking.cancelled"
	BookingCompleted EventType = "booking.completed"
	BookingPaid      EventType = "booking.paid"
)

// BookingEvent is published after a booking changes state.  It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type BookingEvent struct {
	Type       EventType `json:"type"`
	BookingID  uint64    `json:"booking_id"`
	Reference  string    `json:"reference"`
	UserID     uint64    `json:"user_id"`
	JourneyID  uint64    `json:"journey_id"`
	Status     string    `json:"status"`
	IsPaid     bool      `json:"is_paid"`
	TotalCents int64     `json:"total_cents"`
	TravelDate string    `json:"travel_date"`
	Actor      string    `json:"actor"` // customer, admin or gateway
	OccurredAt time.Time `json:"occurred_at"`
}
