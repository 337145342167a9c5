// Package reconciliation times out payments that never received a final
// answer from the gateway.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/platform/cache"
	"github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/metrics"
	"github.com/fatflowers/listing-payment/pkg/types"
)

const lockKey = "listing-payment:reconcile"

type SweepResult struct {
	Scanned int `json:"scanned"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	// Locked is set when another replica was already sweeping.
	Locked bool `json:"locked,omitempty"`
}

type Scheduler struct {
	repo      payment.Repository
	machine   *payment.StateMachine
	locker    cache.Locker
	metrics   *metrics.PaymentMetrics
	log       *zap.SugaredLogger
	now       func() time.Time
	interval  time.Duration
	staleness time.Duration
	batchSize int

	cancel context.CancelFunc
	done   sync.WaitGroup
}

func NewScheduler(cfg *config.Config, repo payment.Repository, machine *payment.StateMachine, locker cache.Locker, m *metrics.PaymentMetrics, log *zap.SugaredLogger) *Scheduler {
	batch := cfg.Payment.ReconcileBatchSize
	if batch <= 0 {
		batch = 200
	}
	return &Scheduler{
		repo:      repo,
		machine:   machine,
		locker:    locker,
		metrics:   m,
		log:       log,
		now:       time.Now,
		interval:  cfg.Payment.ReconcileInterval,
		staleness: cfg.Payment.StaleAfter,
		batchSize: batch,
	}
}

// RunOnce fails every PENDING payment created before now minus the staleness
// threshold. Payments that turn terminal concurrently are skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (*SweepResult, error) {
	release, ok, err := s.locker.TryLock(ctx, lockKey, s.lockTTL())
	if err != nil {
		return nil, fmt.Errorf("reconcile lock: %w", err)
	}
	if !ok {
		logctx.FromCtx(ctx, s.log).Infow("reconcile_skipped_locked")
		return &SweepResult{Locked: true}, nil
	}
	defer release()

	start := time.Now()
	defer s.metrics.ObserveSince("reconcile", "sweep", start)

	cutoff := s.now().UTC().Add(-s.staleness)
	reason := fmt.Sprintf("payment timed out: no confirmation within %s", s.staleness)
	res := &SweepResult{}
	lg := logctx.FromCtx(ctx, s.log).With("cutoff", cutoff)
	for {
		rows, err := s.repo.ListStalePending(ctx, cutoff, s.batchSize)
		if err != nil {
			return res, err
		}
		res.Scanned += len(rows)
		failed := 0
		for _, p := range rows {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			_, err := s.machine.MarkFailed(ctx, p.ID, reason, types.TransitionSourceReconcile)
			switch {
			case err == nil:
				failed++
			case errors.Is(err, payment.ErrConflict):
				res.Skipped++
			default:
				res.Skipped++
				lg.Errorw("reconcile_payment_failed", "payment_id", p.ID, "err", err)
			}
		}
		res.Failed += failed
		// a batch without progress would be listed again forever
		if len(rows) < s.batchSize || failed == 0 {
			break
		}
	}
	s.metrics.Swept("failed", res.Failed)
	s.metrics.Swept("skipped", res.Skipped)
	lg.Infow("reconcile_sweep_done", "scanned", res.Scanned, "failed", res.Failed, "skipped", res.Skipped, "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (s *Scheduler) lockTTL() time.Duration {
	if s.interval > 0 && s.interval < time.Hour {
		return s.interval
	}
	return time.Hour
}

// Start sweeps once immediately, then on every interval until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Errorw("reconcile_sweep_failed", "err", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	s.log.Infow("reconciliation started", "interval", s.interval, "stale_after", s.staleness)
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.done.Wait()
}

func registerScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.StartStopHook(s.Start, s.Stop))
}

var Module = fx.Options(
	fx.Provide(NewScheduler),
	fx.Invoke(registerScheduler),
)
