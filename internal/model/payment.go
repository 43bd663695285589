package model

import "time"

// PaymentStatus is the state of a single payment attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Terminal reports whether the attempt can no longer change state.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentPending
}

// Payment records one attempt to settle a booking through the payment
// gateway.  A booking may own several payments; failed attempts are
// kept for audit.
//
// Fields:
//
//	ID              – primary key identifier.
//	BookingID       – owning booking.
//	TransactionRef  – provider transaction reference, unique.
//	AmountCents     – amount requested from the provider.
//	Currency        – ISO currency code.
//	Status          – attempt state.
//	Provider        – gateway name that created the attempt.
//	ResponseCode    – last provider response code.
//	ResponseMessage – last provider response message.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last reconciliation timestamp.
//	PaidAt          – when the provider reported success.
type Payment struct {
	ID              uint64        `json:"id"`               // payments.id
	BookingID       uint64        `json:"booking_id"`       // payments.booking_id
	TransactionRef  string        `json:"transaction_ref"`  // payments.transaction_ref
	AmountCents     int64         `json:"amount_cents"`     // payments.amount_cents
	Currency        string        `json:"currency"`         // payments.currency
	Status          PaymentStatus `json:"status"`           // payments.status
	Provider        string        `json:"provider"`         // payments.provider
	ResponseCode    *string       `json:"response_code"`    // payments.response_code (nullable)
	ResponseMessage *string       `json:"response_message"` // payments.response_message (nullable)
	CreatedAt       time.Time     `json:"created_at"`       // payments.created_at
	UpdatedAt       *time.Time    `json:"updated_at"`       // payments.updated_at (nullable)
	PaidAt          *time.Time    `json:"paid_at"`          // payments.paid_at (nullable)
}
