package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets in milliseconds. Gateway calls dominate the upper range.
var LatencyBuckets = []float64{
	5, 10, 25, 50, 100, 250, 500,
	750, 1000, 2000, 3000, 5000,
	10000, 20000, 30000, 60000,
}

type MetricType string

const (
	CounterVec   MetricType = "counter_vec"
	GaugeVec     MetricType = "gauge_vec"
	HistogramVec MetricType = "histogram_vec"
	SummaryVec   MetricType = "summary_vec"
)

// Metric describes one collector; NewMetric builds it.
type Metric struct {
	ID          string
	Name        string
	Description string
	Type        MetricType
	Args        []string
}

// NewMetric builds the collector described by m, or nil for an unknown type.
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case CounterVec:
		return prometheus.NewCounterVec(prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case GaugeVec:
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	case HistogramVec:
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: LatencyBuckets}, m.Args)
	case SummaryVec:
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}, m.Args)
	}
	return nil
}

// register adds the collector for def to reg, returning the collector that
// is already registered under the same name if there is one.
func register(reg prometheus.Registerer, def *Metric, subsystem string) (prometheus.Collector, error) {
	c := NewMetric(def, subsystem)
	if c == nil {
		return nil, errors.New("unknown metric type " + string(def.Type))
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "Business step latency in milliseconds, partitioned by step type and subtype.",
	Type:        HistogramVec,
	Args:        []string{"type", "subtype"},
}
