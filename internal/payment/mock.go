package payment

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/iliyamo/desert-paths/internal/metrics"
	"github.com/iliyamo/desert-paths/internal/utils"
)

// MockCheckoutPath is where the mock gateway sends the customer.
const MockCheckoutPath = "/v1/payments/mock/checkout"

// MockTransaction is one payment held by the mock gateway.
type MockTransaction struct {
	TransactionRef string
	Request        Request
	CreatedAt      time.Time
	Completed      bool // set only by a successful completion
}

// MockStore keeps mock transactions in memory.  It is safe for
// concurrent use and lives as long as the gateway that owns it.
type MockStore struct {
	mu  sync.RWMutex
	txs map[string]*MockTransaction
}

func NewMockStore() *MockStore {
	return &MockStore{txs: make(map[string]*MockTransaction)}
}

func (s *MockStore) put(tx *MockTransaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.txs[tx.TransactionRef]; exists {
		return false
	}
	s.txs[tx.TransactionRef] = tx
	return true
}

func (s *MockStore) get(ref string) (MockTransaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[ref]
	if !ok {
		return MockTransaction{}, false
	}
	return *tx, true
}

// complete records the outcome of a checkout.  A decline leaves the
// transaction incomplete so it still queries as pending.
func (s *MockStore) complete(ref string, success bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[ref]
	if !ok {
		return false
	}
	tx.Completed = success
	return true
}

// Len returns the number of stored transactions.
func (s *MockStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// MockGateway simulates a hosted payment page without any network
// traffic.  The customer is redirected to a local checkout route which
// later calls Complete.
type MockGateway struct {
	store *MockStore
	now   func() time.Time
}

func NewMockGateway(store *MockStore) *MockGateway {
	if store == nil {
		store = NewMockStore()
	}
	return &MockGateway{store: store, now: time.Now}
}

func (g *MockGateway) Name() string { return "Mock" }

func (g *MockGateway) CreatePayment(_ context.Context, req Request) Result {
	tx := &MockTransaction{Request: req, CreatedAt: g.now().UTC()}
	// The generated suffix is random; regenerate on the rare collision.
	for i := 0; i < 5; i++ {
		tx.TransactionRef = utils.GenerateTransactionReference(g.now())
		if g.store.put(tx) {
			metrics.GatewayCalls.WithLabelValues(g.Name(), "create", "ok").Inc()
			return Result{
				Success:        true,
				TransactionRef: tx.TransactionRef,
				RedirectURL:    MockCheckoutPath + "?tran_ref=" + url.QueryEscape(tx.TransactionRef),
			}
		}
	}
	metrics.GatewayCalls.WithLabelValues(g.Name(), "create", "error").Inc()
	return Result{ErrorMessage: "Payment creation failed"}
}

func (g *MockGateway) QueryPayment(_ context.Context, ref string) QueryResult {
	tx, ok := g.store.get(ref)
	if !ok {
		metrics.GatewayCalls.WithLabelValues(g.Name(), "query", "not_found").Inc()
		return QueryResult{Status: StatusUnknown, TransactionRef: ref, ErrorMessage: "Transaction not found"}
	}
	metrics.GatewayCalls.WithLabelValues(g.Name(), "query", "ok").Inc()
	res := QueryResult{
		Success:        true,
		Status:         StatusPending,
		TransactionRef: ref,
		AmountCents:    tx.Request.AmountCents,
	}
	if tx.Completed {
		res.Status = StatusAuthorized
		res.ResponseCode, res.ResponseMessage = MockSuccessCode, MockSuccessMessage
	}
	return res
}

// ValidateCallback accepts everything; the mock never posts callbacks
// from outside the process.
func (g *MockGateway) ValidateCallback(string, []byte) bool { return true }

// Response codes written for mock completions.
const (
	MockSuccessCode    = "000"
	MockSuccessMessage = "Mock Payment Successful"
	MockDeclineCode    = "E01"
	MockDeclineMessage = "Mock Payment Declined"
)

// Complete marks a mock transaction as paid or declined and returns the
// callback the provider would have sent.  ok is false for unknown refs.
func (g *MockGateway) Complete(ref string, success bool) (cb Callback, ok bool) {
	if !g.store.complete(ref, success) {
		return Callback{}, false
	}
	tx, _ := g.store.get(ref)
	cb = Callback{
		TranRef:     ref,
		CartID:      tx.Request.OrderID,
		CartAmount:  utils.FormatCents(tx.Request.AmountCents),
		RespStatus:  "D",
		RespCode:    MockDeclineCode,
		RespMessage: MockDeclineMessage,
	}
	if success {
		cb.RespStatus, cb.RespCode, cb.RespMessage = "A", MockSuccessCode, MockSuccessMessage
	}
	return cb, true
}

// Lookup returns a copy of the stored transaction for the checkout page.
func (g *MockGateway) Lookup(ref string) (MockTransaction, bool) {
	return g.store.get(ref)
}
