package payment

import (
	"errors"

	"github.com/fatflowers/listing-payment/internal/platform/gateway"
)

var (
	// ErrValidation marks malformed input, rejected before any state change.
	ErrValidation = errors.New("invalid payment request")
	// ErrAuthentication marks a webhook whose signature did not verify.
	ErrAuthentication = errors.New("webhook authentication failed")
	// ErrForbidden marks a caller reading or creating another user's payment.
	ErrForbidden = errors.New("payment belongs to another user")
	ErrNotFound  = errors.New("payment not found")
	// ErrConflict marks a transition attempted on a terminal payment. Callers
	// treat it as a no-op.
	ErrConflict = errors.New("payment already in a terminal state")
	// ErrDuplicateRequest is returned by Repository.Create when request_id exists.
	ErrDuplicateRequest = errors.New("duplicate request id")
	// ErrPersistence marks a failing payment store.
	ErrPersistence = errors.New("payment store unavailable")

	ErrGatewayTransient   = gateway.ErrTransient
	ErrGatewayUnavailable = gateway.ErrUnavailable
	ErrGatewayRejected    = gateway.ErrRejected
)
