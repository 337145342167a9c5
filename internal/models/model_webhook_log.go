package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookLogStatus string

const (
	WebhookLogStatusReceived     WebhookLogStatus = "received"
	WebhookLogStatusHandled      WebhookLogStatus = "handled"
	WebhookLogStatusHandleFailed WebhookLogStatus = "handle_failed"
)

// WebhookLog is the audit row of an authenticated gateway callback.
type WebhookLog struct {
	ID           string           `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderID   string           `gorm:"column:provider_id;type:varchar(64);not null" json:"provider_id"`
	TraceID      string           `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	GatewayTxRef string           `gorm:"column:gateway_tx_ref;type:varchar(128);index:idx_webhook_log_tx_ref" json:"gateway_tx_ref"`
	PaymentID    *string          `gorm:"column:payment_id;type:uuid" json:"payment_id"`
	Event        string           `gorm:"column:event;type:varchar(64)" json:"event"`
	ReceivedAt   time.Time        `gorm:"column:received_at" json:"received_at"`
	Data         datatypes.JSON   `gorm:"column:data;type:jsonb" json:"data"`
	Result       *datatypes.JSON  `gorm:"column:result;type:jsonb" json:"result"`
	Status       WebhookLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (WebhookLog) TableName() string { return "webhook_log" }
