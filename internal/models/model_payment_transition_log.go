package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/listing-payment/pkg/types"
)

// PaymentTransitionLog records every applied status change of a payment.
// It is written in the same database transaction as the change itself.
type PaymentTransitionLog struct {
	ID         string                 `gorm:"column:id;primary_key;type:uuid;index:idx_payment_id_id,priority:2,sort:desc"`
	PaymentID  string                 `gorm:"column:payment_id;type:uuid;index:idx_payment_id_id,priority:1;not null"`
	FromStatus types.PaymentStatus    `gorm:"column:from_status;type:varchar(16);not null"`
	ToStatus   types.PaymentStatus    `gorm:"column:to_status;type:varchar(16);not null"`
	Source     types.TransitionSource `gorm:"column:source;type:varchar(32);not null"`
	Reason     string                 `gorm:"column:reason;type:text"`
	TraceID    string                 `gorm:"column:trace_id;type:varchar(128)"`
	// Before and After are full snapshots of the row around the change.
	Before    datatypes.JSONType[*Payment] `gorm:"column:before;type:jsonb"`
	After     datatypes.JSONType[*Payment] `gorm:"column:after;type:jsonb"`
	CreatedAt time.Time                    `json:"created_at"`
}

func (PaymentTransitionLog) TableName() string {
	return "payment_transition_log"
}
