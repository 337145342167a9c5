// Package dispatch fans applied payment transitions out to side-effect
// handlers on a bounded worker pool, off the request path.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/metrics"
	"github.com/fatflowers/listing-payment/pkg/types"
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// EventName maps a transition to the event handlers subscribe to.
func EventName(evt *payment.TransitionEvent) string {
	if evt.To == types.PaymentStatusSuccess {
		return EventPaymentSucceeded
	}
	return EventPaymentFailed
}

type Handler func(ctx context.Context, evt *payment.TransitionEvent) error

type subscription struct {
	name    string
	handler Handler
}

type job struct {
	ctx context.Context
	evt *payment.TransitionEvent
}

// Dispatcher implements payment.TransitionListener.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	stopped  bool

	queue          chan job
	workers        int
	handlerTimeout time.Duration
	wg             sync.WaitGroup

	log     *zap.SugaredLogger
	metrics *metrics.PaymentMetrics
}

var _ payment.TransitionListener = (*Dispatcher)(nil)

func New(cfg *config.Config, log *zap.SugaredLogger, m *metrics.PaymentMetrics) *Dispatcher {
	workers := cfg.Dispatch.Workers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.Dispatch.QueueSize
	if size <= 0 {
		size = 64
	}
	return &Dispatcher{
		handlers:       make(map[string][]subscription),
		queue:          make(chan job, size),
		workers:        workers,
		handlerTimeout: 30 * time.Second,
		log:            log,
		metrics:        m,
	}
}

// Subscribe registers h under name for event. Handlers run in registration order.
func (d *Dispatcher) Subscribe(event, name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], subscription{name: name, handler: h})
}

// OnTransition queues evt without blocking. When the queue is full the event
// is delivered on its own goroutine.
func (d *Dispatcher) OnTransition(ctx context.Context, evt *payment.TransitionEvent) {
	// handlers outlive the request but stay on its trace
	jctx := trace.ContextWithSpanContext(logctx.Detach(ctx), trace.SpanContextFromContext(ctx))
	j := job{ctx: jctx, evt: evt}

	d.mu.RLock()
	defer d.mu.RUnlock()
	lg := logctx.FromCtx(ctx, d.log).With("payment_id", evt.Payment.ID, "event", EventName(evt))
	if d.stopped {
		lg.Errorw("dispatch_dropped_after_stop")
		d.metrics.DispatchFailed("stopped")
		return
	}
	select {
	case d.queue <- j:
	default:
		lg.Warnw("dispatch_queue_full")
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(j)
		}()
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				d.deliver(j)
			}
		}()
	}
}

// Stop refuses new events and waits for queued ones until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch drain: %w", ctx.Err())
	}
}

func (d *Dispatcher) deliver(j job) {
	name := EventName(j.evt)
	d.mu.RLock()
	subs := append([]subscription(nil), d.handlers[name]...)
	d.mu.RUnlock()

	lg := logctx.FromCtx(j.ctx, d.log).With("payment_id", j.evt.Payment.ID, "event", name)
	for _, s := range subs {
		start := time.Now()
		if err := d.call(j, s); err != nil {
			d.metrics.DispatchFailed(s.name)
			lg.Errorw("dispatch_handler_failed", "handler", s.name, "err", err)
			continue
		}
		d.metrics.ObserveSince("dispatch", s.name, start)
		lg.Debugw("dispatch_handler_done", "handler", s.name)
	}
}

func (d *Dispatcher) call(j job, s subscription) (err error) {
	ctx, cancel := context.WithTimeout(j.ctx, d.handlerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler(ctx, j.evt)
}

func newLifecycleDispatcher(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger, m *metrics.PaymentMetrics) *Dispatcher {
	d := New(cfg, log, m)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.Start()
			return nil
		},
		OnStop: d.Stop,
	})
	return d
}
