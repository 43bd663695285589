package payment

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/desert-paths/internal/config"
)

var mockRefPattern = regexp.MustCompile(`^MOCK-\d{14}-[0-9A-F]{6}$`)

func sampleRequest() Request {
	return Request{
		OrderID:       "DP-20260301-AB12",
		Description:   "Desert Paths Journey - Empty Quarter",
		AmountCents:   750000,
		Currency:      "SAR",
		CustomerName:  "Sara Khan",
		CustomerEmail: "sara@example.com",
		CustomerPhone: "+966501234567",
		CallbackURL:   "https://api.example.com/v1/payments/callback",
		ReturnURL:     "https://api.example.com/v1/payments/return?booking_id=7",
	}
}

func TestMockGateway_CreateThenComplete(t *testing.T) {
	g := NewMockGateway(NewMockStore())
	ctx := context.Background()

	res := g.CreatePayment(ctx, sampleRequest())
	require.True(t, res.Success)
	assert.Regexp(t, mockRefPattern, res.TransactionRef)
	assert.Equal(t, MockCheckoutPath+"?tran_ref="+res.TransactionRef, res.RedirectURL)

	q := g.QueryPayment(ctx, res.TransactionRef)
	require.True(t, q.Success)
	assert.Equal(t, StatusPending, q.Status)
	assert.Equal(t, int64(750000), q.AmountCents)

	cb, ok := g.Complete(res.TransactionRef, true)
	require.True(t, ok)
	assert.True(t, cb.IsSuccess())
	assert.Equal(t, "DP-20260301-AB12", cb.CartID)
	assert.Equal(t, "7500.00", cb.CartAmount)
	assert.Equal(t, MockSuccessCode, cb.RespCode)

	q = g.QueryPayment(ctx, res.TransactionRef)
	assert.Equal(t, StatusAuthorized, q.Status)
	assert.Equal(t, MockSuccessMessage, q.ResponseMessage)
}

func TestMockGateway_Decline(t *testing.T) {
	g := NewMockGateway(nil)
	res := g.CreatePayment(context.Background(), sampleRequest())
	cb, ok := g.Complete(res.TransactionRef, false)
	require.True(t, ok)
	assert.False(t, cb.IsSuccess())
	assert.Equal(t, MockDeclineCode, cb.RespCode)

	// A declined checkout is not a completion; the provider still
	// reports the transaction as pending and it can be paid later.
	q := g.QueryPayment(context.Background(), res.TransactionRef)
	assert.True(t, q.Success)
	assert.Equal(t, StatusPending, q.Status)
	tx, ok := g.Lookup(res.TransactionRef)
	require.True(t, ok)
	assert.False(t, tx.Completed)

	_, ok = g.Complete(res.TransactionRef, true)
	require.True(t, ok)
	assert.Equal(t, StatusAuthorized, g.QueryPayment(context.Background(), res.TransactionRef).Status)
}

func TestMockGateway_UnknownReference(t *testing.T) {
	g := NewMockGateway(nil)
	_, ok := g.Complete("MOCK-nope", true)
	assert.False(t, ok)
	q := g.QueryPayment(context.Background(), "MOCK-nope")
	assert.False(t, q.Success)
	assert.Equal(t, StatusUnknown, q.Status)
	assert.True(t, g.ValidateCallback("", nil))
}

func TestMockGateway_ConcurrentAccess(t *testing.T) {
	store := NewMockStore()
	g := NewMockGateway(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	refs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := g.CreatePayment(ctx, sampleRequest())
			if res.Success {
				refs <- res.TransactionRef
				g.Complete(res.TransactionRef, true)
				g.QueryPayment(ctx, res.TransactionRef)
			}
		}()
	}
	wg.Wait()
	close(refs)

	n := 0
	for ref := range refs {
		n++
		tx, ok := g.Lookup(ref)
		require.True(t, ok)
		assert.True(t, tx.Completed)
	}
	assert.Equal(t, 64, n)
	assert.Equal(t, 64, store.Len())
}

func TestCallbackIsSuccess(t *testing.T) {
	assert.True(t, Callback{RespStatus: "A"}.IsSuccess())
	assert.True(t, Callback{RespStatus: " a "}.IsSuccess())
	assert.False(t, Callback{RespStatus: "D"}.IsSuccess())
	assert.False(t, Callback{}.IsSuccess())
}

func TestMapStatusCode(t *testing.T) {
	cases := map[string]TransactionStatus{
		"A": StatusAuthorized, "a": StatusAuthorized,
		"D": StatusDeclined, "C": StatusCancelled, "P": StatusPending,
		"E": StatusUnknown, "": StatusUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapStatusCode(in), in)
	}
}

func newPayTabs(t *testing.T, h http.HandlerFunc) *PayTabsGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewPayTabsGateway(config.PaymentConfig{
		Provider:  config.ProviderPayTabs,
		ProfileID: "98765",
		ServerKey: "server-key",
		BaseURL:   srv.URL,
		Timeout:   2 * time.Second,
	}, nil)
}

func TestPayTabs_CreatePaymentWireFormat(t *testing.T) {
	var got map[string]any
	g := newPayTabs(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment/request", r.URL.Path)
		assert.Equal(t, "server-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Contains(t, string(raw), `"cart_amount":7500.00`)
		_, _ = w.Write([]byte(`{"tran_ref":"TST123","redirect_url":"https://secure.paytabs.sa/payment/page/abc"}`))
	})

	res := g.CreatePayment(context.Background(), sampleRequest())
	require.True(t, res.Success)
	assert.Equal(t, "TST123", res.TransactionRef)
	assert.Equal(t, "https://secure.paytabs.sa/payment/page/abc", res.RedirectURL)

	assert.Equal(t, "98765", got["profile_id"])
	assert.Equal(t, "sale", got["tran_type"])
	assert.Equal(t, "ecom", got["tran_class"])
	assert.Equal(t, "DP-20260301-AB12", got["cart_id"])
	assert.Equal(t, "SAR", got["cart_currency"])
	assert.Equal(t, true, got["hide_shipping"])
	customer := got["customer_details"].(map[string]any)
	assert.Equal(t, "Sara Khan", customer["name"])
	assert.Equal(t, "SA", customer["country"])
}

func TestPayTabs_CreatePaymentFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"Authentication failed"}`, http.StatusUnauthorized)
		},
		"malformed": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		},
		"no redirect": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"tran_ref":"TST1"}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			res := newPayTabs(t, h).CreatePayment(context.Background(), sampleRequest())
			assert.False(t, res.Success)
			assert.Equal(t, "Payment creation failed", res.ErrorMessage)
			assert.NotContains(t, res.ErrorMessage, "Authentication")
		})
	}
}

func TestPayTabs_TransportErrorAndTimeout(t *testing.T) {
	g := NewPayTabsGateway(config.PaymentConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)
	res := g.CreatePayment(context.Background(), sampleRequest())
	assert.False(t, res.Success)

	slow := newPayTabs(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	q := slow.QueryPayment(ctx, "TST1")
	assert.False(t, q.Success)
	assert.Equal(t, StatusUnknown, q.Status)
}

func TestPayTabs_QueryPayment(t *testing.T) {
	g := newPayTabs(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment/query", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TST9", body["tran_ref"])
		_, _ = w.Write([]byte(`{"tran_ref":"TST9","cart_amount":"7500.00","payment_result":{"response_status":"d","response_code":"481","response_message":"Declined"}}`))
	})

	q := g.QueryPayment(context.Background(), "TST9")
	require.True(t, q.Success)
	assert.Equal(t, StatusDeclined, q.Status)
	assert.Equal(t, int64(750000), q.AmountCents)
	assert.Equal(t, "481", q.ResponseCode)
	assert.Equal(t, "Declined", q.ResponseMessage)
}

func TestPayTabs_ValidateCallback(t *testing.T) {
	g := NewPayTabsGateway(config.PaymentConfig{ServerKey: "server-key"}, nil)
	payload := []byte(`{"tran_ref":"TST9","respStatus":"A"}`)
	sig := hex.EncodeToString(SignPayload("server-key", payload))

	assert.True(t, g.ValidateCallback(sig, payload))
	assert.True(t, g.ValidateCallback(strings.ToUpper(sig), payload))
	assert.False(t, g.ValidateCallback("", payload))
	assert.False(t, g.ValidateCallback("zz", payload))
	assert.False(t, g.ValidateCallback(sig, []byte(`{"tran_ref":"TST9","respStatus":"D"}`)))
	assert.False(t, g.ValidateCallback(hex.EncodeToString(SignPayload("other", payload)), payload))
}
