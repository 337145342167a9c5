package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/metrics"
	"github.com/fatflowers/listing-payment/pkg/retry"
)

// RetryingGateway retries transient failures of next with exponential backoff
// and turns an exhausted budget into ErrUnavailable.
type RetryingGateway struct {
	next    Gateway
	policy  retry.Policy
	log     *zap.SugaredLogger
	metrics *metrics.PaymentMetrics
}

func NewRetryingGateway(next Gateway, policy retry.Policy, log *zap.SugaredLogger, m *metrics.PaymentMetrics) *RetryingGateway {
	if policy.IsTransient == nil {
		policy.IsTransient = IsTransient
	}
	return &RetryingGateway{next: next, policy: policy, log: log, metrics: m}
}

func (g *RetryingGateway) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error) {
	var res *InitiateResult
	err := g.do(ctx, "initiate", func(ctx context.Context) error {
		var err error
		res, err = g.next.Initiate(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (g *RetryingGateway) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	var res *VerifyResult
	err := g.do(ctx, "verify", func(ctx context.Context) error {
		var err error
		res, err = g.next.Verify(ctx, txRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Ping is not retried, health probes want the current answer.
func (g *RetryingGateway) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

func (g *RetryingGateway) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	defer g.metrics.ObserveSince("gateway", op, start)

	p := g.policy
	p.Notify = func(err error, wait time.Duration) {
		logctx.FromCtx(ctx, g.log).Warnw("gateway_retry", "op", op, "err", err, "wait_ms", wait.Milliseconds())
	}
	err := retry.Do(ctx, p, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, retry.ErrExhausted) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
	if !errors.Is(err, ErrRejected) && !errors.Is(err, ErrUnavailable) {
		// anything unclassified that was not retried is treated as rejection
		return fmt.Errorf("%w: %s: %w", ErrRejected, op, err)
	}
	return err
}
