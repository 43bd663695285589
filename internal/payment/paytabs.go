package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/desert-paths/internal/config"
	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/metrics"
	"github.com/iliyamo/desert-paths/internal/utils"
)

// Generic messages returned to callers.  Provider error bodies are
// logged but never surfaced.
const (
	msgCreateFailed = "Payment creation failed"
	msgQueryFailed  = "Payment query failed"
	maxResponseBody = 1 << 20
)

// SignatureHeader carries the callback HMAC.
const SignatureHeader = "Signature"

type payTabsCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
}

type payTabsCreateRequest struct {
	ProfileID       string          `json:"profile_id"`
	TranType        string          `json:"tran_type"`
	TranClass       string          `json:"tran_class"`
	CartID          string          `json:"cart_id"`
	CartDescription string          `json:"cart_description"`
	CartCurrency    string          `json:"cart_currency"`
	CartAmount      json.Number     `json:"cart_amount"`
	Callback        string          `json:"callback"`
	Return          string          `json:"return"`
	CustomerDetails payTabsCustomer `json:"customer_details"`
	HideShipping    bool            `json:"hide_shipping"`
}

type payTabsCreateResponse struct {
	TranRef     string `json:"tran_ref"`
	RedirectURL string `json:"redirect_url"`
}

type payTabsQueryRequest struct {
	ProfileID string `json:"profile_id"`
	TranRef   string `json:"tran_ref"`
}

type payTabsQueryResponse struct {
	TranRef       string `json:"tran_ref"`
	CartAmount    string `json:"cart_amount"`
	PaymentResult struct {
		ResponseStatus  string `json:"response_status"`
		ResponseCode    string `json:"response_code"`
		ResponseMessage string `json:"response_message"`
	} `json:"payment_result"`
}

// PayTabsGateway talks to the PayTabs hosted payment page API.
type PayTabsGateway struct {
	cfg    config.PaymentConfig
	client *http.Client
	log    *logger.Logger
}

// NewPayTabsGateway builds a client bounded by cfg.Timeout.  A nil logger
// discards output.
func NewPayTabsGateway(cfg config.PaymentConfig, log *logger.Logger) *PayTabsGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.PayTabsBaseURL(cfg.Region)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Country == "" {
		cfg.Country = "SA"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &PayTabsGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With("gateway", "paytabs"),
	}
}

func (g *PayTabsGateway) Name() string { return "PayTabs" }

func (g *PayTabsGateway) CreatePayment(ctx context.Context, req Request) Result {
	body := payTabsCreateRequest{
		ProfileID:       g.cfg.ProfileID,
		TranType:        "sale",
		TranClass:       "ecom",
		CartID:          req.OrderID,
		CartDescription: req.Description,
		CartCurrency:    req.Currency,
		CartAmount:      json.Number(utils.FormatCents(req.AmountCents)),
		Callback:        req.CallbackURL,
		Return:          req.ReturnURL,
		CustomerDetails: payTabsCustomer{
			Name:    req.CustomerName,
			Email:   req.CustomerEmail,
			Phone:   req.CustomerPhone,
			Country: g.cfg.Country,
		},
		HideShipping: true,
	}
	var out payTabsCreateResponse
	if err := g.post(ctx, "create", "/payment/request", body, &out); err != nil {
		g.log.Warn("create payment failed", "cart_id", req.OrderID, "err", err)
		return Result{ErrorMessage: msgCreateFailed}
	}
	if out.TranRef == "" || out.RedirectURL == "" {
		g.log.Warn("create payment returned no redirect", "cart_id", req.OrderID)
		return Result{ErrorMessage: msgCreateFailed}
	}
	return Result{Success: true, TransactionRef: out.TranRef, RedirectURL: out.RedirectURL}
}

func (g *PayTabsGateway) QueryPayment(ctx context.Context, ref string) QueryResult {
	var out payTabsQueryResponse
	err := g.post(ctx, "query", "/payment/query", payTabsQueryRequest{ProfileID: g.cfg.ProfileID, TranRef: ref}, &out)
	if err != nil {
		g.log.Warn("query payment failed", "tran_ref", ref, "err", err)
		return QueryResult{Status: StatusUnknown, TransactionRef: ref, ErrorMessage: msgQueryFailed}
	}
	res := QueryResult{
		Success:         true,
		Status:          MapStatusCode(out.PaymentResult.ResponseStatus),
		TransactionRef:  out.TranRef,
		ResponseCode:    out.PaymentResult.ResponseCode,
		ResponseMessage: out.PaymentResult.ResponseMessage,
	}
	if res.TransactionRef == "" {
		res.TransactionRef = ref
	}
	if out.CartAmount != "" {
		if cents, err := utils.ParseCents(out.CartAmount); err == nil {
			res.AmountCents = cents
		}
	}
	return res
}

// ValidateCallback checks the hex HMAC-SHA256 of the raw callback body
// keyed by the server key.
func (g *PayTabsGateway) ValidateCallback(signature string, payload []byte) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || g.cfg.ServerKey == "" {
		return false
	}
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(want, SignPayload(g.cfg.ServerKey, payload))
}

// SignPayload computes the callback signature for payload.
func SignPayload(key string, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return mac.Sum(nil)
}

func (g *PayTabsGateway) post(ctx context.Context, op, path string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.GatewayCalls.WithLabelValues(g.Name(), op, outcome).Inc()
		metrics.GatewayLatency.WithLabelValues(g.Name(), op).Observe(time.Since(start).Seconds())
	}()

	buf, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", g.cfg.ServerKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("paytabs %s: status %d: %s", path, resp.StatusCode, truncate(raw, 256))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("paytabs %s: decode: %w", path, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
