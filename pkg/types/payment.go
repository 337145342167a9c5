package types

// PaymentStatus is the lifecycle state of a listing-fee payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// CanTransitionTo reports whether s -> next is an edge of the lifecycle.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && next.IsTerminal()
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed:
		return true
	}
	return false
}

// TransitionSource names what triggered a state transition.
type TransitionSource string

const (
	TransitionSourceInitiate  TransitionSource = "initiate"
	TransitionSourceWebhook   TransitionSource = "webhook"
	TransitionSourceReturn    TransitionSource = "return"
	TransitionSourceReconcile TransitionSource = "reconcile"
)

// GatewayProvider identifies the external payment gateway.
type GatewayProvider string

const (
	GatewayProviderChapa GatewayProvider = "chapa"
)

// CallerRole is the role claim carried by bearer tokens.
type CallerRole string

const (
	CallerRoleOwner   CallerRole = "Owner"
	CallerRoleAdmin   CallerRole = "Admin"
	CallerRoleService CallerRole = "Service"
)
