package paymenttest

import (
	"context"
	"sync"
	"time"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/pkg/config"
)

// Recorder is a payment.TransitionListener that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []*payment.TransitionEvent
}

func (r *Recorder) OnTransition(_ context.Context, evt *payment.TransitionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *Recorder) Events() []*payment.TransitionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*payment.TransitionEvent(nil), r.events...)
}

// Config returns a validated configuration with a 500.00 ETB fee.
func Config() *config.Config {
	cfg := &config.Config{
		Env: config.EnvDev,
		Payment: config.PaymentConfig{
			FeeAmount:          "500.00",
			Currency:           "ETB",
			StaleAfter:         24 * time.Hour,
			ReconcileInterval:  time.Hour,
			ReconcileBatchSize: 100,
		},
		Gateway: config.GatewayConfig{
			CallbackURL: "https://api.example/api/v1/webhook/chapa",
			ReturnURL:   "https://app.example/payments/return",
			Timeout:     time.Second,
			Retry:       config.RetryConfig{MaxAttempts: 1},
		},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
