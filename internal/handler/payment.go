package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/payment"
	"github.com/iliyamo/desert-paths/internal/service"
	"github.com/iliyamo/desert-paths/internal/utils"
)

const maxCallbackBytes = 1 << 20

// PaymentHandler serves provider callbacks, browser returns and the
// mock checkout.
type PaymentHandler struct {
	Bookings *service.BookingService
	Log      *logger.Logger
}

func NewPaymentHandler(b *service.BookingService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{Bookings: b, Log: log}
}

// parseCallback decodes a JSON or form encoded callback body.
func parseCallback(contentType string, body []byte) (payment.Callback, error) {
	var cb payment.Callback
	if strings.HasPrefix(strings.ToLower(contentType), echo.MIMEApplicationJSON) {
		err := json.Unmarshal(body, &cb)
		return cb, err
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return cb, err
	}
	cb.TranRef = form.Get("tran_ref")
	cb.CartID = form.Get("cart_id")
	cb.CartAmount = form.Get("cart_amount")
	cb.RespStatus = form.Get("respStatus")
	cb.RespCode = form.Get("respCode")
	cb.RespMessage = form.Get("respMessage")
	return cb, nil
}

// Callback handles POST /v1/payments/callback.  The signature is checked
// over the raw body before anything is parsed.  Unexpected failures
// answer 500 so the provider redelivers; redelivery is harmless because
// settled payments are not re-applied.
func (h *PaymentHandler) Callback(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBytes))
	if err != nil {
		return badRequest(c, "unreadable body")
	}
	gw := h.Bookings.Gateway()
	if !gw.ValidateCallback(c.Request().Header.Get(payment.SignatureHeader), body) {
		h.Log.Warn("callback signature rejected", "provider", gw.Name(), "remote", c.RealIP())
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}
	cb, err := parseCallback(c.Request().Header.Get(echo.HeaderContentType), body)
	if err != nil {
		return badRequest(c, "invalid callback body")
	}
	p, err := h.Bookings.ReconcileCallback(c.Request().Context(), cb)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || service.IsValidation(err) {
			return respondError(c, h.Log, err)
		}
		h.Log.Error("callback reconciliation failed", "tran_ref", cb.TranRef, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": p.Status, "tran_ref": p.TransactionRef})
}

// Return handles GET and POST /v1/payments/return?booking_id=.
func (h *PaymentHandler) Return(c echo.Context) error {
	id, err := strconv.ParseUint(c.QueryParam("booking_id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "invalid booking id")
	}
	out, err := h.Bookings.ReconcileReturn(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

type mockCheckoutView struct {
	TransactionRef string `json:"tran_ref"`
	OrderID        string `json:"cart_id"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	CustomerName   string `json:"customer_name"`
	Completed      bool   `json:"completed"`
}

// MockCheckout handles GET /v1/payments/mock/checkout?tran_ref=.
func (h *PaymentHandler) MockCheckout(c echo.Context) error {
	ref := strings.TrimSpace(c.QueryParam("tran_ref"))
	if ref == "" {
		return badRequest(c, "tran_ref required")
	}
	tx, err := h.Bookings.MockCheckout(ref)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, mockCheckoutView{
		TransactionRef: tx.TransactionRef,
		OrderID:        tx.Request.OrderID,
		Description:    tx.Request.Description,
		Amount:         utils.FormatCents(tx.Request.AmountCents),
		Currency:       tx.Request.Currency,
		CustomerName:   tx.Request.CustomerName,
		Completed:      tx.Completed,
	})
}

type mockCompleteReq struct {
	TranRef string `json:"tran_ref" form:"tran_ref"`
	Success bool   `json:"success" form:"success"`
}

// MockComplete handles POST /v1/payments/mock/complete.
func (h *PaymentHandler) MockComplete(c echo.Context) error {
	var req mockCompleteReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.TranRef) == "" {
		return badRequest(c, "tran_ref required")
	}
	done, err := h.Bookings.CompleteMockPayment(c.Request().Context(), strings.TrimSpace(req.TranRef), req.Success)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, done)
}
