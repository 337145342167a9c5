package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const paymentSubsystem = "payment"

var initiations = &Metric{
	ID:          "initiations",
	Name:        "initiations_total",
	Description: "Initiate requests partitioned by outcome (created, replayed, rejected, error).",
	Type:        CounterVec,
	Args:        []string{"outcome"},
}

var webhooks = &Metric{
	ID:          "webhooks",
	Name:        "webhooks_total",
	Description: "Gateway webhook deliveries partitioned by outcome.",
	Type:        CounterVec,
	Args:        []string{"outcome"},
}

var transitions = &Metric{
	ID:          "transitions",
	Name:        "transitions_total",
	Description: "State transition attempts partitioned by target status, trigger and whether they applied.",
	Type:        CounterVec,
	Args:        []string{"status", "source", "applied"},
}

var sweeps = &Metric{
	ID:          "sweeps",
	Name:        "reconcile_payments_total",
	Description: "Payments visited by reconciliation sweeps partitioned by result.",
	Type:        CounterVec,
	Args:        []string{"result"},
}

var dispatchFailures = &Metric{
	ID:          "dispatchFailures",
	Name:        "dispatch_failures_total",
	Description: "Failed side-effect deliveries partitioned by handler.",
	Type:        CounterVec,
	Args:        []string{"handler"},
}

// PaymentMetrics holds the business collectors of the payment flow.
// A nil *PaymentMetrics is valid and records nothing.
type PaymentMetrics struct {
	initiations      *prometheus.CounterVec
	webhooks         *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	sweeps           *prometheus.CounterVec
	dispatchFailures *prometheus.CounterVec
	process          *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment collectors on reg, reusing any
// collector that is already registered under the same name.
func NewPaymentMetrics(reg prometheus.Registerer) (*PaymentMetrics, error) {
	m := &PaymentMetrics{}
	for _, def := range []*Metric{initiations, webhooks, transitions, sweeps, dispatchFailures} {
		c, err := register(reg, def, paymentSubsystem)
		if err != nil {
			return nil, err
		}
		vec := c.(*prometheus.CounterVec)
		switch def {
		case initiations:
			m.initiations = vec
		case webhooks:
			m.webhooks = vec
		case transitions:
			m.transitions = vec
		case sweeps:
			m.sweeps = vec
		case dispatchFailures:
			m.dispatchFailures = vec
		}
	}
	c, err := register(reg, MetricsBusinessProcess, paymentSubsystem)
	if err != nil {
		return nil, err
	}
	m.process = c.(*prometheus.HistogramVec)
	return m, nil
}

func (m *PaymentMetrics) Initiation(outcome string) {
	if m == nil {
		return
	}
	m.initiations.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) Webhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) Transition(status, source string, applied bool) {
	if m == nil {
		return
	}
	a := "false"
	if applied {
		a = "true"
	}
	m.transitions.WithLabelValues(status, source, a).Inc()
}

func (m *PaymentMetrics) Swept(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweeps.WithLabelValues(result).Add(float64(n))
}

func (m *PaymentMetrics) DispatchFailed(handler string) {
	if m == nil {
		return
	}
	m.dispatchFailures.WithLabelValues(handler).Inc()
}

// ObserveSince records the latency of a business step such as ("gateway", "verify").
func (m *PaymentMetrics) ObserveSince(typ, subtype string, start time.Time) {
	if m == nil {
		return
	}
	m.process.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

func newDefaultPaymentMetrics() (*PaymentMetrics, error) {
	return NewPaymentMetrics(prometheus.DefaultRegisterer)
}

var Module = fx.Options(
	fx.Provide(newDefaultPaymentMetrics),
)
