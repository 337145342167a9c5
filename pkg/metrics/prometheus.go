package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const httpSubsystem = "http"

var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "HTTP requests processed, partitioned by status code, method and route.",
	Type:        CounterVec,
	Args:        []string{"code", "method", "route"},
}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "HTTP request latencies in milliseconds.",
	Type:        HistogramVec,
	Args:        []string{"code", "method", "route"},
}

var reqSz = &Metric{
	ID:          "reqSz",
	Name:        "req_sz_bytes",
	Description: "Approximate HTTP request sizes in bytes.",
	Type:        SummaryVec,
	Args:        []string{"code", "method", "route"},
}

var resSz = &Metric{
	ID:          "resSz",
	Name:        "resp_sz_bytes",
	Description: "HTTP response sizes in bytes.",
	Type:        SummaryVec,
	Args:        []string{"code", "method", "route"},
}

// unmatchedRoute labels requests that hit no registered route, so scanners
// cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

// HTTPMetrics records per-route request metrics for a gin engine.
type HTTPMetrics struct {
	reqCnt       *prometheus.CounterVec
	reqDur       *prometheus.HistogramVec
	reqSz, resSz *prometheus.SummaryVec
}

func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{}
	for _, def := range []*Metric{reqCnt, reqDur, reqSz, resSz} {
		c, err := register(reg, def, httpSubsystem)
		if err != nil {
			return nil, err
		}
		switch def {
		case reqCnt:
			m.reqCnt = c.(*prometheus.CounterVec)
		case reqDur:
			m.reqDur = c.(*prometheus.HistogramVec)
		case reqSz:
			m.reqSz = c.(*prometheus.SummaryVec)
		case resSz:
			m.resSz = c.(*prometheus.SummaryVec)
		}
	}
	return m, nil
}

// Middleware labels by the route template, e.g. /api/v1/payments/:id/status.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		size := computeApproximateRequestSize(c.Request)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		labels := []string{strconv.Itoa(c.Writer.Status()), c.Request.Method, route}
		m.reqDur.WithLabelValues(labels...).Observe(MillisecondsSince(start))
		m.reqCnt.WithLabelValues(labels...).Inc()
		m.reqSz.WithLabelValues(labels...).Observe(float64(size))
		m.resSz.WithLabelValues(labels...).Observe(float64(max(c.Writer.Size(), 0)))
	}
}

// Serve exposes g on addr under /metrics for the lifetime of lc. The
// exposition listener is kept apart from the API port.
func Serve(lc fx.Lifecycle, log *zap.SugaredLogger, addr string, g prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorw("metrics server stopped", "addr", addr, "err", err)
				}
			}()
			log.Infow("metrics started", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
