// Package payment contains the payment gateway abstraction and its two
// implementations: an in-memory mock used for development and a PayTabs
// HTTP client.  The gateway is chosen once at startup.
package payment

import (
	"context"
	"strings"
)

// TransactionStatus is the provider-neutral status returned by a query.
type TransactionStatus string

const (
	StatusUnknown    TransactionStatus = "UNKNOWN"
	StatusPending    TransactionStatus = "PENDING"
	StatusAuthorized TransactionStatus = "AUTHORIZED"
	StatusDeclined   TransactionStatus = "DECLINED"
	StatusCancelled  TransactionStatus = "CANCELLED"
	StatusRefunded   TransactionStatus = "REFUNDED"
)

// Request describes one payment attempt.  AmountCents is in minor units of
// Currency.
type Request struct {
	OrderID       string
	Description   string
	AmountCents   int64
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CallbackURL   string
	ReturnURL     string
}

// Result is the outcome of CreatePayment.  When Success is false only
// ErrorMessage is meaningful.
type Result struct {
	Success        bool
	TransactionRef string
	RedirectURL    string
	ErrorMessage   string
}

// QueryResult is the outcome of QueryPayment.
type QueryResult struct {
	Success         bool
	Status          TransactionStatus
	TransactionRef  string
	AmountCents     int64
	ResponseCode    string
	ResponseMessage string
	ErrorMessage    string
}

// Gateway is implemented by every payment provider.  Implementations
// never return transport failures as errors or panics; they report them
// through the result's Success flag.
type Gateway interface {
	Name() string
	CreatePayment(ctx context.Context, req Request) Result
	QueryPayment(ctx context.Context, transactionRef string) QueryResult
	ValidateCallback(signature string, payload []byte) bool
}

// Callback is the server-to-server notification posted by the provider.
type Callback struct {
	TranRef     string `json:"tran_ref" form:"tran_ref"`
	CartID      string `json:"cart_id" form:"cart_id"`
	CartAmount  string `json:"cart_amount" form:"cart_amount"`
	RespStatus  string `json:"respStatus" form:"respStatus"`
	RespCode    string `json:"respCode" form:"respCode"`
	RespMessage string `json:"respMessage" form:"respMessage"`
}

// IsSuccess reports whether the provider authorised the transaction.
func (c Callback) IsSuccess() bool {
	return strings.EqualFold(strings.TrimSpace(c.RespStatus), "A")
}

// MapStatusCode converts a provider single-letter status to a
// TransactionStatus.  Unrecognised codes map to StatusUnknown.
func MapStatusCode(code string) TransactionStatus {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A":
		return StatusAuthorized
	case "D":
		return StatusDeclined
	case "C":
		return StatusCancelled
	case "P":
		return StatusPending
	}
	return StatusUnknown
}
