// Package gateway defines the outbound payment gateway contract and the
// resilience decorators applied to every implementation.
package gateway

import (
	"context"
	"errors"
	"net"

	"github.com/shopspring/decimal"
)

var (
	// ErrTransient marks a failure worth retrying: timeout, 5xx, rate limit.
	ErrTransient = errors.New("gateway transient failure")
	// ErrRejected marks a non-retryable 4xx answer.
	ErrRejected = errors.New("gateway rejected request")
	// ErrUnavailable is returned once transient failures exhausted the retry budget.
	ErrUnavailable = errors.New("gateway unavailable")
)

type VerifyStatus string

const (
	VerifyStatusSuccess VerifyStatus = "success"
	VerifyStatusFailed  VerifyStatus = "failed"
	VerifyStatusPending VerifyStatus = "pending"
)

type InitiateRequest struct {
	// Reference is the tx_ref proposed to the gateway. It is derived from the
	// payment id, so a retried call cannot open a second transaction.
	Reference   string
	PaymentID   string
	PropertyID  string
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	CallbackURL string
	ReturnURL   string
}

type InitiateResult struct {
	CheckoutURL string
	TxRef       string
}

type VerifyResult struct {
	TxRef    string
	Status   VerifyStatus
	Reason   string
	Amount   decimal.Decimal
	Currency string
}

type Gateway interface {
	Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, txRef string) (*VerifyResult, error)
	// Ping checks the gateway is reachable with valid credentials.
	Ping(ctx context.Context) error
}

// SignatureVerifier authenticates a raw webhook body.
type SignatureVerifier interface {
	Verify(payload []byte, signature string) bool
}

// IsTransient is the default retry classifier for gateway calls.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
