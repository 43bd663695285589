package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/service"
)

// AdminHandler is the back office.  Routes are mounted behind
// RequireRole(Admin, Manager); deletes and role changes are narrowed to
// Admin in the router or the service.
type AdminHandler struct {
	Bookings *service.BookingService
	Reviews  *service.ReviewService
	Catalog  *service.CatalogService
	Users    *service.UserService
	Log      *logger.Logger
}

func NewAdminHandler(b *service.BookingService, r *service.ReviewService, cat *service.CatalogService, u *service.UserService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{Bookings: b, Reviews: r, Catalog: cat, Users: u, Log: log}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	d, err := h.Bookings.Dashboard(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// ---- bookings ----

func (h *AdminHandler) ListBookings(c echo.Context) error {
	rows, err := h.Bookings.AdminListBookings(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *AdminHandler) GetBooking(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	d, err := h.Bookings.AdminGetBooking(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// bookingAction runs one of the admin status actions on the :id booking.
func (h *AdminHandler) bookingAction(c echo.Context, act func(context.Context, uint64) (*model.Booking, error)) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	b, err := act(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *AdminHandler) ConfirmBooking(c echo.Context) error {
	return h.bookingAction(c, h.Bookings.AdminConfirm)
}

func (h *AdminHandler) CancelBooking(c echo.Context) error {
	return h.bookingAction(c, h.Bookings.AdminCancel)
}

func (h *AdminHandler) MarkPaid(c echo.Context) error {
	return h.bookingAction(c, h.Bookings.AdminMarkPaid)
}

func (h *AdminHandler) CompleteBooking(c echo.Context) error {
	return h.bookingAction(c, h.Bookings.AdminComplete)
}

func (h *AdminHandler) SetNotes(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var body struct {
		AdminNotes string `json:"admin_notes"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	b, err := h.Bookings.AdminSetNotes(c.Request().Context(), id, body.AdminNotes)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ---- reviews ----

func (h *AdminHandler) ListReviews(c echo.Context) error {
	rs, err := h.Reviews.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *AdminHandler) ApproveReview(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid review id")
	}
	if err := h.Reviews.Approve(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) DeleteReview(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid review id")
	}
	if err := h.Reviews.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- lands ----

func (h *AdminHandler) ListLands(c echo.Context) error {
	lands, err := h.Catalog.AdminListLands(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, lands)
}

func (h *AdminHandler) CreateLand(c echo.Context) error {
	var in service.LandInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	l, err := h.Catalog.CreateLand(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *AdminHandler) UpdateLand(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid land id")
	}
	var in service.LandInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	l, err := h.Catalog.UpdateLand(c.Request().Context(), id, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *AdminHandler) DeleteLand(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid land id")
	}
	if err := h.Catalog.DeleteLand(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- journeys ----

func (h *AdminHandler) ListJourneys(c echo.Context) error {
	var landID uint64
	if raw := c.QueryParam("land_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "invalid land_id")
		}
		landID = id
	}
	js, err := h.Catalog.AdminListJourneys(c.Request().Context(), landID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, js)
}

func (h *AdminHandler) CreateJourney(c echo.Context) error {
	var in service.JourneyInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	j, err := h.Catalog.CreateJourney(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, j)
}

func (h *AdminHandler) UpdateJourney(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid journey id")
	}
	var in service.JourneyInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	j, err := h.Catalog.UpdateJourney(c.Request().Context(), id, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, j)
}

func (h *AdminHandler) DeleteJourney(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid journey id")
	}
	if err := h.Catalog.DeleteJourney(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- users ----

func (h *AdminHandler) ListUsers(c echo.Context) error {
	us, err := h.Users.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, us)
}

func (h *AdminHandler) userAction(c echo.Context, act func(context.Context, service.Actor, uint64) (*model.User, error)) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	u, err := act(c.Request().Context(), a, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHandler) ToggleBlock(c echo.Context) error { return h.userAction(c, h.Users.ToggleBlock) }

func (h *AdminHandler) Promote(c echo.Context) error { return h.userAction(c, h.Users.Promote) }

func (h *AdminHandler) Demote(c echo.Context) error { return h.userAction(c, h.Users.Demote) }
