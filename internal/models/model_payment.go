package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/listing-payment/pkg/types"
)

// Payment is one listing-fee transaction. Rows are never deleted.
type Payment struct {
	ID string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	// RequestID is the client idempotency key.
	RequestID  string              `gorm:"column:request_id;type:varchar(64);not null;uniqueIndex:uk_payment_request_id" json:"request_id"`
	PropertyID string              `gorm:"column:property_id;type:varchar(64);not null;index:idx_payment_property_id" json:"property_id"`
	UserID     string              `gorm:"column:user_id;type:varchar(64);not null;index:idx_payment_user_id" json:"user_id"`
	Amount     decimal.Decimal     `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Currency   string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status     types.PaymentStatus `gorm:"column:status;type:varchar(16);not null;index:idx_payment_status_created_at,priority:1" json:"status"`
	// GatewayTxRef is set once after the gateway accepted the checkout.
	GatewayTxRef  *string    `gorm:"column:gateway_tx_ref;type:varchar(128);uniqueIndex:uk_payment_gateway_tx_ref" json:"gateway_tx_ref"`
	CheckoutURL   *string    `gorm:"column:checkout_url;type:text" json:"checkout_url"`
	FailureReason *string    `gorm:"column:failure_reason;type:text" json:"failure_reason"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null;index:idx_payment_status_created_at,priority:2" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
	ApprovedAt    *time.Time `gorm:"column:approved_at" json:"approved_at"`
}

func (Payment) TableName() string { return "payment" }

func (p *Payment) IsTerminal() bool { return p != nil && p.Status.IsTerminal() }

// Clone returns a shallow copy with its own pointer fields.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	c.GatewayTxRef = clonePtr(p.GatewayTxRef)
	c.CheckoutURL = clonePtr(p.CheckoutURL)
	c.FailureReason = clonePtr(p.FailureReason)
	c.ApprovedAt = clonePtr(p.ApprovedAt)
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
