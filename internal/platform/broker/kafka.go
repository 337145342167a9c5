// Package broker publishes payment lifecycle events to kafka.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/logctx"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// StateChangedEvent is emitted once per applied terminal transition.
type StateChangedEvent struct {
	PaymentID      string    `json:"payment_id"`
	PropertyID     string    `json:"property_id"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewKafkaWriter returns nil when no brokers are configured.
func NewKafkaWriter(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) MessageWriter {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Infow("kafka disabled, no brokers configured")
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		WriteTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Infow("closing kafka writer")
			return w.Close()
		},
	})
	log.Infow("kafka writer ready", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return w
}

type Publisher struct {
	w   MessageWriter
	log *zap.SugaredLogger
}

func NewPublisher(w MessageWriter, log *zap.SugaredLogger) *Publisher {
	return &Publisher{w: w, log: log}
}

func (p *Publisher) Enabled() bool { return p != nil && p.w != nil }

// PublishStateChanged writes evt keyed by payment id so all events of one
// payment land on the same partition.
func (p *Publisher) PublishStateChanged(ctx context.Context, evt *StateChangedEvent) error {
	if !p.Enabled() {
		return nil
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode state changed event: %w", err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.PaymentID),
		Value: value,
		Time:  evt.OccurredAt,
	}); err != nil {
		return fmt.Errorf("publish state changed event for %s: %w", evt.PaymentID, err)
	}
	logctx.FromCtx(ctx, p.log).Debugw("state_change_published", "payment_id", evt.PaymentID, "status", evt.Status)
	return nil
}

var Module = fx.Options(
	fx.Provide(NewKafkaWriter, NewPublisher),
)
