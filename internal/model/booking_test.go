package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookingStatus(t *testing.T) {
	s, ok := ParseBookingStatus(" confirmed ")
	assert.True(t, ok)
	assert.Equal(t, BookingConfirmed, s)

	_, ok = ParseBookingStatus("failed")
	assert.False(t, ok)
	assert.True(t, BookingCancelled.Terminal())
	assert.False(t, BookingConfirmed.Terminal())
}

func TestParsePaymentMethod(t *testing.T) {
	for _, in := range []string{"OnArrival", "on_arrival", "on-arrival", "ON ARRIVAL"} {
		m, ok := ParsePaymentMethod(in)
		assert.True(t, ok, in)
		assert.Equal(t, PaymentOnArrival, m, in)
	}
	m, ok := ParsePaymentMethod("Online")
	assert.True(t, ok)
	assert.Equal(t, PaymentOnline, m)

	_, ok = ParsePaymentMethod("cash")
	assert.False(t, ok)
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Sara Khan", User{FirstName: "Sara", LastName: "Khan"}.FullName())
	assert.Equal(t, "Sara", User{FirstName: "Sara"}.FullName())
}
