package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/service"
)

// BookingHandler serves the customer booking and review endpoints.
type BookingHandler struct {
	Bookings *service.BookingService
	Reviews  *service.ReviewService
	BaseURL  string // public base URL the provider calls back on
	Log      *logger.Logger
}

func NewBookingHandler(b *service.BookingService, r *service.ReviewService, baseURL string, log *logger.Logger) *BookingHandler {
	return &BookingHandler{Bookings: b, Reviews: r, BaseURL: strings.TrimRight(baseURL, "/"), Log: log}
}

// paymentURLs builds the callback and return URLs for one booking.
func (h *BookingHandler) paymentURLs(bookingID uint64) service.PaymentURLs {
	return service.PaymentURLs{
		CallbackURL: h.BaseURL + "/v1/payments/callback",
		ReturnURL:   h.BaseURL + "/v1/payments/return?booking_id=" + strconv.FormatUint(bookingID, 10),
	}
}

// Create handles POST /v1/bookings.  ONLINE bookings start a payment
// right away; if the gateway fails the booking is still created and
// payment_error tells the client to retry via /pay.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in service.CreateBookingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	in.UserID = uid

	ctx := c.Request().Context()
	b, err := h.Bookings.CreateBooking(ctx, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	resp := echo.Map{"booking": b}
	if b.PaymentMethod == model.PaymentOnline {
		init, err := h.Bookings.InitiatePayment(ctx, uid, b.ID, h.paymentURLs(b.ID))
		var gerr *service.GatewayError
		switch {
		case err == nil:
			resp["payment"] = init
		case errors.As(err, &gerr):
			resp["payment_error"] = gerr.Message
		default:
			h.Log.Error("initiate payment after booking", "booking_id", b.ID, "err", err)
			resp["payment_error"] = "Unable to initiate payment. Please try again."
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rows, err := h.Bookings.ListMyBookings(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	d, err := h.Bookings.GetBooking(c.Request().Context(), uid, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	b, err := h.Bookings.CancelBooking(c.Request().Context(), uid, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Pay handles POST /v1/bookings/:id/pay and starts a new payment attempt.
func (h *BookingHandler) Pay(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	init, err := h.Bookings.InitiatePayment(c.Request().Context(), uid, id, h.paymentURLs(id))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, init)
}

// CanReview handles GET /v1/journeys/:id/can-review.
func (h *BookingHandler) CanReview(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid journey id")
	}
	can, err := h.Reviews.CanReview(c.Request().Context(), uid, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"can_review": can})
}

// SubmitReview handles POST /v1/journeys/:id/reviews.
func (h *BookingHandler) SubmitReview(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid journey id")
	}
	var in service.SubmitReviewInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	in.UserID, in.JourneyID = uid, id
	r, err := h.Reviews.SubmitReview(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, r)
}
