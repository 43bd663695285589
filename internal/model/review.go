package model

import "time"

// Review is a customer's rating of a journey they completed.  Reviews
// stay hidden from the public until an admin approves them.
type Review struct {
	ID         uint64    `json:"id"`          // reviews.id
	JourneyID  uint64    `json:"journey_id"`  // reviews.journey_id
	UserID     uint64    `json:"user_id"`     // reviews.user_id
	Rating     int       `json:"rating"`      // reviews.rating (1..5)
	Comment    *string   `json:"comment"`     // reviews.comment (nullable)
	IsApproved bool      `json:"is_approved"` // reviews.is_approved
	CreatedAt  time.Time `json:"created_at"`  // reviews.created_at
}
