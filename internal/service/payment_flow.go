package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/desert-paths/internal/metrics"
	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/payment"
	"github.com/iliyamo/desert-paths/internal/queue"
	"github.com/iliyamo/desert-paths/internal/repository"
	"github.com/iliyamo/desert-paths/internal/utils"
)

const msgPaymentUnavailable = "Unable to initiate payment. Please try again."

// PaymentURLs are the provider-facing URLs for one payment attempt.
type PaymentURLs struct {
	CallbackURL string
	ReturnURL   string
}

// PaymentInitiation is a stored PENDING payment and where to send the
// customer to complete it.
type PaymentInitiation struct {
	Payment     *model.Payment `json:"payment"`
	RedirectURL string         `json:"redirect_url"`
}

// InitiatePayment starts a new payment attempt for a PENDING booking.
// A gateway failure leaves the booking untouched; every retry creates a
// new Payment row.
func (s *BookingService) InitiatePayment(ctx context.Context, userID, bookingID uint64, urls PaymentURLs) (*PaymentInitiation, error) {
	b, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingPending || b.IsPaid {
		return nil, conflict(ReasonNotPayable)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	journey, err := s.catalog.GetJourney(ctx, b.JourneyID)
	if err != nil {
		return nil, err
	}

	email := b.ContactEmail
	if email == "" {
		email = user.Email
	}
	phone := b.ContactPhone
	if phone == "" && user.Phone != nil {
		phone = *user.Phone
	}
	res := s.gateway.CreatePayment(ctx, payment.Request{
		OrderID:       b.Reference,
		Description:   "Desert Paths Journey: " + journey.Title,
		AmountCents:   b.TotalCents,
		Currency:      s.currency,
		CustomerName:  user.FullName(),
		CustomerEmail: email,
		CustomerPhone: phone,
		CallbackURL:   urls.CallbackURL,
		ReturnURL:     urls.ReturnURL,
	})
	if !res.Success {
		s.log.Warn("payment initiation failed", "booking_id", b.ID, "provider", s.gateway.Name(), "reason", res.ErrorMessage)
		msg := res.ErrorMessage
		if msg == "" {
			msg = msgPaymentUnavailable
		}
		return nil, &GatewayError{Provider: s.gateway.Name(), Message: msg}
	}

	p := &model.Payment{
		BookingID:      b.ID,
		TransactionRef: res.TransactionRef,
		AmountCents:    b.TotalCents,
		Currency:       s.currency,
		Status:         model.PaymentPending,
		Provider:       s.gateway.Name(),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("payment initiated", "booking_id", b.ID, "payment_id", p.ID, "tran_ref", p.TransactionRef, "provider", p.Provider)
	return &PaymentInitiation{Payment: p, RedirectURL: res.RedirectURL}, nil
}

// ReconcileCallback applies a provider callback.  Unknown references
// return ErrNotFound without touching any state.  A success callback
// whose amount disagrees with the stored payment is treated as failed.
func (s *BookingService) ReconcileCallback(ctx context.Context, cb payment.Callback) (*model.Payment, error) {
	ref := strings.TrimSpace(cb.TranRef)
	if ref == "" {
		return nil, invalid("tran_ref", "tran_ref is required")
	}
	p, err := s.payments.GetByTransactionRef(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.Reconciliations.WithLabelValues("callback", "not_found").Inc()
			s.log.Warn("callback for unknown transaction", "tran_ref", ref)
		}
		return nil, err
	}
	out := repository.PaymentOutcome{
		Success:         cb.IsSuccess(),
		ResponseCode:    cb.RespCode,
		ResponseMessage: cb.RespMessage,
		At:              s.now().UTC(),
	}
	if out.Success && cb.CartAmount != "" {
		if amount, err := utils.ParseCents(cb.CartAmount); err != nil || amount != p.AmountCents {
			s.log.Warn("callback amount mismatch", "tran_ref", ref, "expected_cents", p.AmountCents, "cart_amount", cb.CartAmount)
			out.Success = false
			out.ResponseMessage = "Amount mismatch"
		}
	}
	return s.settle(ctx, "callback", ref, out)
}

// settle applies out to the payment and publishes the booking event when
// the booking changed.
func (s *BookingService) settle(ctx context.Context, source, ref string, out repository.PaymentOutcome) (*model.Payment, error) {
	st, err := s.payments.Settle(ctx, ref, out)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrNotFound) {
			result = "not_found"
		}
		metrics.Reconciliations.WithLabelValues(source, result).Inc()
		return nil, err
	}
	p := st.Payment
	switch {
	case !st.Applied:
		metrics.Reconciliations.WithLabelValues(source, "already_settled").Inc()
		s.log.Info("payment already settled", "tran_ref", ref, "status", p.Status, "source", source)
		return &p, nil
	case p.Status == model.PaymentCompleted:
		metrics.Reconciliations.WithLabelValues(source, "completed").Inc()
	default:
		metrics.Reconciliations.WithLabelValues(source, "failed").Inc()
	}
	s.log.Info("payment settled", "tran_ref", ref, "payment_id", p.ID, "booking_id", p.BookingID,
		"status", p.Status, "code", out.ResponseCode, "source", source)

	if p.Status == model.PaymentCompleted {
		ev := queue.BookingPaid
		if st.BookingConfirmed {
			ev = queue.BookingConfirmed
		}
		if b, err := s.bookings.GetByID(ctx, p.BookingID); err == nil {
			s.recordTransition(ctx, b, ev, ActorGateway)
		} else {
			s.log.Warn("reload booking after settlement failed", "booking_id", p.BookingID, "err", err)
		}
	}
	return &p, nil
}

// ReturnResult summarises a browser return from the payment page.
type ReturnResult string

const (
	ReturnPaid      ReturnResult = "PAID"
	ReturnNotPaid   ReturnResult = "NOT_PAID"
	ReturnNoPayment ReturnResult = "NO_PAYMENT"
)

// ReturnOutcome is what the customer is shown after the payment page.
// The return route is unauthenticated, so the payment row stays
// server-side.
type ReturnOutcome struct {
	BookingID uint64         `json:"booking_id"`
	Result    ReturnResult   `json:"result"`
	Message   string         `json:"message"`
	Payment   *model.Payment `json:"-"`
}

// ReconcileReturn handles the customer's return from the provider.  If
// the latest payment is still PENDING the gateway is queried and the
// callback rules are applied to its answer.  A booking with no payments
// yields ReturnNoPayment without asserting anything.
func (s *BookingService) ReconcileReturn(ctx context.Context, bookingID uint64) (*ReturnOutcome, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	p, err := s.payments.LatestForBooking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		return &ReturnOutcome{BookingID: bookingID, Result: ReturnNoPayment, Message: "No payment was found for this booking."}, nil
	}
	if err != nil {
		return nil, err
	}

	if p.Status == model.PaymentPending && p.TransactionRef != "" {
		q := s.gateway.QueryPayment(ctx, p.TransactionRef)
		if q.Success {
			out := repository.PaymentOutcome{ResponseCode: q.ResponseCode, ResponseMessage: q.ResponseMessage, At: s.now().UTC()}
			settleNow := false
			switch q.Status {
			case payment.StatusAuthorized:
				out.Success, settleNow = true, true
			case payment.StatusDeclined, payment.StatusCancelled:
				settleNow = true
			}
			if settleNow {
				if p, err = s.settle(ctx, "return", p.TransactionRef, out); err != nil {
					return nil, err
				}
			}
		} else {
			s.log.Warn("payment query failed on return", "booking_id", bookingID, "tran_ref", p.TransactionRef, "reason", q.ErrorMessage)
		}
	}

	if p.Status == model.PaymentCompleted {
		return &ReturnOutcome{BookingID: bookingID, Result: ReturnPaid, Message: "Payment successful! Your booking is confirmed.", Payment: p}, nil
	}
	msg := "Unknown error"
	if p.ResponseMessage != nil && *p.ResponseMessage != "" {
		msg = *p.ResponseMessage
	}
	return &ReturnOutcome{BookingID: bookingID, Result: ReturnNotPaid, Message: "Payment was not successful: " + msg, Payment: p}, nil
}

// MockCompletion is the result of finishing a mock checkout.
type MockCompletion struct {
	Payment   *model.Payment `json:"payment"`
	ReturnURL string         `json:"return_url"`
}

// CompleteMockPayment finishes a mock checkout: it marks the mock
// transaction and reconciles the payment as a callback would.  Only
// available when the mock gateway is configured.
func (s *BookingService) CompleteMockPayment(ctx context.Context, ref string, success bool) (*MockCompletion, error) {
	mock, ok := s.gateway.(*payment.MockGateway)
	if !ok {
		return nil, ErrNotFound
	}
	cb, ok := mock.Complete(ref, success)
	if !ok {
		return nil, ErrNotFound
	}
	p, err := s.settle(ctx, "mock", ref, repository.PaymentOutcome{
		Success:         cb.IsSuccess(),
		ResponseCode:    cb.RespCode,
		ResponseMessage: cb.RespMessage,
		At:              s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	tx, _ := mock.Lookup(ref)
	return &MockCompletion{Payment: p, ReturnURL: tx.Request.ReturnURL}, nil
}

// MockCheckout returns the stored mock transaction for the checkout page.
func (s *BookingService) MockCheckout(ref string) (*payment.MockTransaction, error) {
	mock, ok := s.gateway.(*payment.MockGateway)
	if !ok {
		return nil, ErrNotFound
	}
	tx, ok := mock.Lookup(ref)
	if !ok {
		return nil, ErrNotFound
	}
	return &tx, nil
}
