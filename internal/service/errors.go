package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/desert-paths/internal/repository"
)

// ErrNotFound covers unknown ids and resources owned by someone else.
// It is the repository sentinel so errors.Is works across layers.
var ErrNotFound = repository.ErrNotFound

// ErrForbidden is returned when the caller's role does not allow the
// action.
var ErrForbidden = repository.ErrForbidden

// FieldError is one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports invalid input.  Nothing has been written when
// it is returned.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (v *ValidationError) add(field, msg string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: msg})
}

func (v *ValidationError) orNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

// ConflictError is a business rule rejection, e.g. paying a booking
// that is no longer pending.  Reason is shown to the user as is.
type ConflictError struct {
	Reason string
}

func (c *ConflictError) Error() string { return c.Reason }

func conflict(reason string) *ConflictError { return &ConflictError{Reason: reason} }

// GatewayError is a payment provider failure.  Message is generic and
// safe to show; the booking is unchanged and the customer may retry.
type GatewayError struct {
	Provider string
	Message  string
}

func (g *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", g.Provider, g.Message)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// User-facing reasons.
const (
	ReasonAccountBlocked    = "Your account has been blocked. Please contact support."
	ReasonOnlyPendingCancel = "Only pending bookings can be cancelled."
	ReasonCancelTooLate     = "Bookings can only be cancelled at least 14 days before the travel date."
	ReasonNotPayable        = "This booking cannot be paid for."
	ReasonAlreadyReviewed   = "You have already reviewed this journey."
	ReasonReviewNotAllowed  = "You can only review journeys you have completed."
	ReasonBlockPrivileged   = "Managers cannot block other managers or admins."
	ReasonSelfAction        = "You cannot change your own account."
	ReasonInUse             = "The item is still referenced and cannot be deleted."
)
